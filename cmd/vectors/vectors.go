// Package vectors implements the vectors command, which lists the test vector catalog.
package vectors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajkula/renegade/cmd/assess"
	"github.com/ajkula/renegade/pkg/catalog"
	"github.com/ajkula/renegade/pkg/console"
)

// Execute prints the catalog, optionally restricted to some categories
func Execute(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Root().PersistentFlags().GetString("config")
	categories, _ := cmd.Flags().GetStringSlice("category")
	asJSON, _ := cmd.Flags().GetBool("json")

	cat := catalog.Default()
	if asJSON {
		return WriteJSON(os.Stdout, cat, categories)
	}

	cfg, err := assess.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return Display(assess.NewLogger(cmd, cfg.Output), cat, categories)
}

// Display prints the vectors grouped by category with colored severities
func Display(logger *console.Logger, cat *catalog.Catalog, categories []string) error {
	selected, err := selectCategories(cat, categories)
	if err != nil {
		return err
	}

	groups := cat.ByCategory()
	total := 0

	logger.Section("TEST VECTOR CATALOG")
	for _, category := range selected {
		vectors := groups[category]
		logger.Printf("%s (%d)\n", strings.ToUpper(string(category)), len(vectors))
		for _, v := range vectors {
			logger.Printf("  %-22s %-28s %s\n", v.ID, v.Name, logger.Severity(v.Severity))
		}
		logger.Printf("\n")
		total += len(vectors)
	}

	logger.Printf("%d vector(s), %d test cases each\n", total, catalog.TestCasesPerVector)
	return nil
}

// WriteJSON writes the selected vectors as a JSON array
func WriteJSON(w io.Writer, cat *catalog.Catalog, categories []string) error {
	var vectors []catalog.TestVector
	if len(categories) == 0 {
		vectors = cat.List()
	} else {
		var err error
		vectors, err = cat.SelectCategories(toCategories(categories))
		if err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(vectors)
}

func selectCategories(cat *catalog.Catalog, categories []string) ([]catalog.Category, error) {
	if len(categories) == 0 {
		return cat.Categories(), nil
	}
	// validation only; the result order follows the catalog
	if _, err := cat.SelectCategories(toCategories(categories)); err != nil {
		return nil, err
	}

	wanted := make(map[catalog.Category]bool, len(categories))
	for _, c := range toCategories(categories) {
		wanted[c] = true
	}

	var selected []catalog.Category
	for _, c := range cat.Categories() {
		if wanted[c] {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

func toCategories(raw []string) []catalog.Category {
	out := make([]catalog.Category, 0, len(raw))
	for _, r := range raw {
		out = append(out, catalog.Category(strings.ToLower(strings.TrimSpace(r))))
	}
	return out
}
