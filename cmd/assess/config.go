package assess

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/config"
	"github.com/ajkula/renegade/pkg/target"
)

// LoadConfig loads the configuration file located by the root command and applies environment overrides
func LoadConfig(filename string) (*config.Config, error) {
	if filename == "" {
		filename = viper.ConfigFileUsed()
	}

	cfg, err := config.LoadConfigOrCreateDefault(filename)
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnvironment(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveTargets maps CLI references to targets. A reference is either the name of a
// configured target or an endpoint URL. No references selects every configured target.
func ResolveTargets(cfg *config.Config, refs []string) ([]target.Target, error) {
	if len(refs) == 0 {
		if len(cfg.Targets) == 0 {
			return nil, fmt.Errorf("no targets configured; pass --target or add targets to the configuration")
		}
		targets := make([]target.Target, 0, len(cfg.Targets))
		for _, tc := range cfg.Targets {
			targets = append(targets, tc.ToTarget())
		}
		return targets, nil
	}

	// name -> endpoint of every target already selected
	seen := make(map[string]string, len(refs))
	var targets []target.Target
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}

		var tgt target.Target
		if tc, ok := cfg.FindTarget(ref); ok {
			tgt = tc.ToTarget()
		} else {
			var err error
			if tgt, err = targetFromURL(ref); err != nil {
				return nil, err
			}
		}

		if endpoint, ok := seen[tgt.Name]; ok {
			if strings.TrimRight(endpoint, "/") != strings.TrimRight(tgt.Endpoint, "/") {
				return nil, fmt.Errorf("target name %q refers to both %s and %s", tgt.Name, endpoint, tgt.Endpoint)
			}
			continue
		}
		seen[tgt.Name] = tgt.Endpoint
		targets = append(targets, tgt)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets selected")
	}
	return targets, nil
}

// targetFromURL builds an ad-hoc target named after the endpoint host and path
func targetFromURL(raw string) (target.Target, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return target.Target{}, fmt.Errorf("unknown target %q: not a configured target name or endpoint URL", raw)
	}

	tgt := target.Target{
		Name:        u.Host + strings.TrimRight(u.Path, "/"),
		Endpoint:    raw,
		Kind:        target.KindLLM,
		Description: fmt.Sprintf("CLI Target: %s", raw),
	}
	if err := tgt.Validate(); err != nil {
		return target.Target{}, err
	}
	return tgt, nil
}

// ResolveVectors selects vectors by ID and category. IDs come first, in request order,
// followed by category matches in catalog order. An empty selection means every vector.
func ResolveVectors(cat *catalog.Catalog, ids, categories []string) ([]catalog.TestVector, error) {
	if len(ids) == 0 && len(categories) == 0 {
		return cat.List(), nil
	}

	selected, err := cat.Select(ids)
	if err != nil {
		return nil, err
	}

	wanted := make([]catalog.Category, 0, len(categories))
	for _, c := range categories {
		wanted = append(wanted, catalog.Category(c))
	}
	byCategory, err := cat.SelectCategories(wanted)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(selected))
	for _, v := range selected {
		seen[v.ID] = true
	}
	for _, v := range byCategory {
		if !seen[v.ID] {
			seen[v.ID] = true
			selected = append(selected, v)
		}
	}
	return selected, nil
}

// ResolveBudget picks the CLI duration, then the assessment duration, then the engine default
func ResolveBudget(cfg *config.Config, flagValue time.Duration) (time.Duration, error) {
	switch {
	case flagValue < 0:
		return 0, fmt.Errorf("duration cannot be negative: %v", flagValue)
	case flagValue > 0:
		return flagValue, nil
	case cfg.Assessment.Duration > 0:
		return cfg.Assessment.Duration, nil
	default:
		return cfg.Engine.DefaultDuration, nil
	}
}
