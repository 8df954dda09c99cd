// Package severity defines the finding severity taxonomy and its risk weights
package severity

import "strings"

// Severity is a finding severity label (low, medium, high, critical)
type Severity string

const (
	Low      Severity = "low"
	Medium   Severity = "medium"
	High     Severity = "high"
	Critical Severity = "critical"
)

// DefaultWeight is applied to severities outside the taxonomy
const DefaultWeight = 1

var weights = map[Severity]int{
	Low:      1,
	Medium:   2,
	High:     3,
	Critical: 5,
}

var ranks = map[Severity]int{
	Low:      1,
	Medium:   2,
	High:     3,
	Critical: 4,
}

// All returns the known severities from lowest to highest
func All() []Severity {
	return []Severity{Low, Medium, High, Critical}
}

// Parse normalizes a raw label; unknown labels are kept as-is (lowercased)
func Parse(raw string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(raw)))
}

// Weight returns the risk weight of a severity. Unknown severities weigh DefaultWeight.
func Weight(s Severity) int {
	if w, ok := weights[Parse(string(s))]; ok {
		return w
	}
	return DefaultWeight
}

// Weight returns the risk weight of s
func (s Severity) Weight() int {
	return Weight(s)
}

// Rank orders severities; unknown severities rank 0
func (s Severity) Rank() int {
	return ranks[Parse(string(s))]
}

// IsKnown reports whether s belongs to the taxonomy
func (s Severity) IsKnown() bool {
	_, ok := weights[Parse(string(s))]
	return ok
}

// Highest returns the highest-ranked severity in list, or "" for an empty list
func Highest(list []Severity) Severity {
	var highest Severity
	for _, s := range list {
		if highest == "" || s.Rank() > highest.Rank() {
			highest = s
		}
	}
	return highest
}

func (s Severity) String() string {
	return string(s)
}
