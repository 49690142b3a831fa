package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"plancheck/internal/catalog"
)

//go:embed default_catalog.txt
var defaultCatalogText string

// loadCatalog reads the rule catalog from path, falling back to the bundled
// default when path is empty. JSON files are treated as compiled exchange
// documents; anything else is parsed as authored rule text.
func loadCatalog(path string, log *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		return parseCatalogText(defaultCatalogText, "bundled", log)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if strings.HasSuffix(path, ".json") {
		cat, err := catalog.LoadCompiled(data)
		if err != nil {
			return nil, fmt.Errorf("load compiled catalog: %w", err)
		}
		return cat, nil
	}
	return parseCatalogText(string(data), path, log)
}

func parseCatalogText(text, source string, log *slog.Logger) (*catalog.Catalog, error) {
	res := catalog.Parse(text)
	for _, w := range res.Warnings {
		log.Warn("catalog authoring warning", "source", source, "warning", w)
	}
	cat, err := catalog.NewCatalog(res.Rules)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	log.Info("catalog loaded", "source", source, "rules", cat.Len())
	return cat, nil
}
