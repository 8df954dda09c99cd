// Package target defines the AI-model endpoint record an assessment runs against
package target

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind is the type of model exposed by a target endpoint
type Kind string

const (
	KindLLM            Kind = "llm"
	KindContentFilter  Kind = "content_filter"
	KindEmbedding      Kind = "embedding"
	KindClassification Kind = "classification"
	KindOther          Kind = "other"
)

// ParseKind maps loose labels ("LLM", "Content Filter") to a Kind. Unrecognized labels map to KindOther.
func ParseKind(raw string) Kind {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)

	switch Kind(normalized) {
	case KindLLM, KindContentFilter, KindEmbedding, KindClassification:
		return Kind(normalized)
	case "":
		return KindLLM
	default:
		return KindOther
	}
}

// Credential is an opaque secret. It never prints its value.
type Credential string

const redacted = "[REDACTED]"

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return redacted
}

// GoString keeps %#v from leaking the secret
func (c Credential) GoString() string {
	return c.String()
}

// Reveal returns the raw secret for the component that actually authenticates
func (c Credential) Reveal() string {
	return string(c)
}

// Target is an AI-model endpoint under assessment
type Target struct {
	Name        string     `yaml:"name" json:"name"`
	Endpoint    string     `yaml:"endpoint" json:"endpoint"`
	Kind        Kind       `yaml:"kind" json:"kind"`
	Credential  Credential `yaml:"credential" json:"-"`
	Description string     `yaml:"description" json:"description"`
}

// Validate checks the target is well formed: a name and an absolute endpoint URL
func (t Target) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("target name is required")
	}

	if strings.TrimSpace(t.Endpoint) == "" {
		return fmt.Errorf("target %q: endpoint is required", t.Name)
	}

	u, err := url.Parse(t.Endpoint)
	if err != nil {
		return fmt.Errorf("target %q: invalid endpoint: %w", t.Name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target %q: endpoint must be an absolute URL, got %q", t.Name, t.Endpoint)
	}

	return nil
}

// Snapshot returns an independent copy of the target
func (t Target) Snapshot() Target {
	return Target{
		Name:        strings.TrimSpace(t.Name),
		Endpoint:    strings.TrimSpace(t.Endpoint),
		Kind:        ParseKind(string(t.Kind)),
		Credential:  t.Credential,
		Description: t.Description,
	}
}
