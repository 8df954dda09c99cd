// Package catalog holds the registry of available test vectors.
//
// A Catalog is immutable once built. The process-wide default catalog is
// constructed on first use and every caller sees the same contents.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ajkula/renegade/pkg/severity"
)

// TestCasesPerVector is the number of synthetic variations run per vector
const TestCasesPerVector = 10

// Category groups test vectors by framework
type Category string

const (
	CategoryOWASP    Category = "owasp"
	CategoryNIST     Category = "nist"
	CategoryFairness Category = "fairness"
	CategoryPrivacy  Category = "privacy"
	CategoryExploit  Category = "exploit"
)

// TestVector is a named, categorized, severity-tagged test type
type TestVector struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Category Category          `json:"category" yaml:"category"`
	Severity severity.Severity `json:"severity" yaml:"severity"`
}

// Catalog is an ordered, read-only set of test vectors with unique IDs
type Catalog struct {
	vectors []TestVector
	index   map[string]int
}

// New builds a catalog, rejecting empty or duplicate IDs
func New(vectors []TestVector) (*Catalog, error) {
	c := &Catalog{
		vectors: make([]TestVector, 0, len(vectors)),
		index:   make(map[string]int, len(vectors)),
	}

	for i, v := range vectors {
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("test vector %d has an empty id", i)
		}
		if _, exists := c.index[v.ID]; exists {
			return nil, fmt.Errorf("duplicate test vector id: %s", v.ID)
		}
		c.index[v.ID] = len(c.vectors)
		c.vectors = append(c.vectors, v)
	}

	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(builtinVectors())
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid built-in vectors: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func builtinVectors() []TestVector {
	return []TestVector{
		{ID: "sql_injection", Name: "SQL Injection", Category: CategoryOWASP, Severity: severity.High},
		{ID: "xss", Name: "Cross-Site Scripting", Category: CategoryOWASP, Severity: severity.Medium},
		{ID: "prompt_injection", Name: "Prompt Injection", Category: CategoryOWASP, Severity: severity.Critical},
		{ID: "insecure_output", Name: "Insecure Output Handling", Category: CategoryOWASP, Severity: severity.High},
		{ID: "nist_governance", Name: "AI Governance", Category: CategoryNIST, Severity: severity.Medium},
		{ID: "nist_transparency", Name: "Transparency", Category: CategoryNIST, Severity: severity.Medium},
		{ID: "fairness_demographic", Name: "Demographic Parity", Category: CategoryFairness, Severity: severity.High},
		{ID: "privacy_gdpr", Name: "GDPR Compliance", Category: CategoryPrivacy, Severity: severity.Critical},
		{ID: "jailbreaking", Name: "Jailbreaking Resistance", Category: CategoryExploit, Severity: severity.Critical},
	}
}

// List returns the vectors in catalog order. The slice is a copy.
func (c *Catalog) List() []TestVector {
	out := make([]TestVector, len(c.vectors))
	copy(out, c.vectors)
	return out
}

// Len returns the number of vectors
func (c *Catalog) Len() int {
	return len(c.vectors)
}

// Lookup finds a vector by ID
func (c *Catalog) Lookup(id string) (TestVector, bool) {
	i, ok := c.index[id]
	if !ok {
		return TestVector{}, false
	}
	return c.vectors[i], true
}

// Categories returns each category once, in order of first appearance
func (c *Catalog) Categories() []Category {
	seen := make(map[Category]bool)
	var categories []Category
	for _, v := range c.vectors {
		if !seen[v.Category] {
			seen[v.Category] = true
			categories = append(categories, v.Category)
		}
	}
	return categories
}

// ByCategory groups vectors by category, keeping catalog order inside each group
func (c *Catalog) ByCategory() map[Category][]TestVector {
	groups := make(map[Category][]TestVector)
	for _, v := range c.vectors {
		groups[v.Category] = append(groups[v.Category], v)
	}
	return groups
}

// CategoryCounts returns the number of vectors per category
func (c *Catalog) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, v := range c.vectors {
		counts[v.Category]++
	}
	return counts
}

// Select resolves IDs to vectors in request order. Repeated IDs are collapsed.
func (c *Catalog) Select(ids []string) ([]TestVector, error) {
	seen := make(map[string]bool, len(ids))
	selected := make([]TestVector, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		v, ok := c.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown test vector: %q", id)
		}
		seen[id] = true
		selected = append(selected, v)
	}
	return selected, nil
}

// SelectCategories returns every vector in the given categories, in catalog order
func (c *Catalog) SelectCategories(categories []Category) ([]TestVector, error) {
	wanted := make(map[Category]bool, len(categories))
	counts := c.CategoryCounts()
	for _, cat := range categories {
		cat = Category(strings.ToLower(strings.TrimSpace(string(cat))))
		if counts[cat] == 0 {
			return nil, fmt.Errorf("unknown test vector category: %q", cat)
		}
		wanted[cat] = true
	}

	var selected []TestVector
	for _, v := range c.vectors {
		if wanted[v.Category] {
			selected = append(selected, v)
		}
	}
	return selected, nil
}
