// Package documents loads the list of tracked rule pages.
package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Document is a tracked rule page. It is configured externally and never
// modified by the archive.
type Document struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Locator string `yaml:"url" json:"url"`
}

// Label is the name, or the id when no name is configured.
func (d Document) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Load reads tracked documents from a .json or .yaml/.yml file.
//
// The JSON form is a top-level array of {"id", "name", "url"} objects, the
// format of data/tracked_rules.json. The YAML form is a "documents:" list
// with the same keys. "locator" is accepted in place of "url" in both.
func Load(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		docs, err = parseYAML(data)
	default:
		docs, err = parseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validate(docs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

func parseJSON(data []byte) ([]Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if root.Get("documents").IsArray() {
		root = root.Get("documents")
	}
	if !root.IsArray() {
		return nil, errors.New("expected an array of documents")
	}

	var docs []Document
	for _, item := range root.Array() {
		locator := item.Get("url").String()
		if locator == "" {
			locator = item.Get("locator").String()
		}
		docs = append(docs, Document{
			ID:      strings.TrimSpace(item.Get("id").String()),
			Name:    strings.TrimSpace(item.Get("name").String()),
			Locator: strings.TrimSpace(locator),
		})
	}
	return docs, nil
}

type yamlFile struct {
	Documents []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		URL     string `yaml:"url"`
		Locator string `yaml:"locator"`
	} `yaml:"documents"`
}

func parseYAML(data []byte) ([]Document, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(f.Documents))
	for _, d := range f.Documents {
		locator := d.URL
		if locator == "" {
			locator = d.Locator
		}
		docs = append(docs, Document{
			ID:      strings.TrimSpace(d.ID),
			Name:    strings.TrimSpace(d.Name),
			Locator: strings.TrimSpace(locator),
		})
	}
	return docs, nil
}

func validate(docs []Document) error {
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		if d.Locator == "" {
			return fmt.Errorf("document %s has no url", d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate document id %s", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Find returns the document with the given id.
func Find(docs []Document, id string) (Document, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}
