// Package entities pulls named entities (dates, amounts, agencies,
// places and cited rules) out of changed rule text. The results are
// metadata attached to a change; nothing in the archive depends on them.
package entities

import (
	"sort"
	"strings"

	"github.com/sw33tLie/rulewatch/pkg/changes"
	"github.com/tidwall/sjson"
)

// Category names an entity class.
type Category string

const (
	Date         Category = "date"
	Money        Category = "money"
	Organization Category = "organization"
	Location     Category = "location"
	Law          Category = "law"
)

// Categories lists every category in output order.
var Categories = []Category{Date, Money, Organization, Location, Law}

// Entities maps each category to its sorted, deduplicated matches.
type Entities map[Category][]string

// Empty returns an Entities value with every category present and empty.
func Empty() Entities {
	e := make(Entities, len(Categories))
	for _, c := range Categories {
		e[c] = []string{}
	}
	return e
}

// Count is the total number of entities over all categories.
func (e Entities) Count() int {
	n := 0
	for _, v := range e {
		n += len(v)
	}
	return n
}

func (e Entities) add(c Category, v string) {
	v = strings.TrimRight(strings.TrimSpace(v), ",;:")
	if c == Law || c == Money {
		v = strings.TrimRight(v, ".-")
	}
	if v == "" {
		return
	}
	e[c] = append(e[c], v)
}

func (e Entities) finalize() {
	for c, vals := range e {
		sort.Strings(vals)
		out := make([]string, 0, len(vals))
		for i, v := range vals {
			if i > 0 && v == vals[i-1] {
				continue
			}
			out = append(out, v)
		}
		e[c] = out
	}
}

// Analysis is the entity breakdown of one change.
type Analysis struct {
	Summary    string
	Added      Entities
	Removed    Entities
	RawChanges []string
}

// Extractor analyzes tagged change lines.
type Extractor interface {
	Analyze(lines []changes.Line) Analysis
}

// JSON encodes the analysis with stable key order.
func (a Analysis) JSON() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	if out, err = sjson.SetBytes(out, "summary", a.Summary); err != nil {
		return nil, err
	}
	for _, side := range []struct {
		key string
		ent Entities
	}{{"added_entities", a.Added}, {"removed_entities", a.Removed}} {
		for _, c := range Categories {
			vals := side.ent[c]
			if vals == nil {
				vals = []string{}
			}
			if out, err = sjson.SetBytes(out, side.key+"."+string(c), vals); err != nil {
				return nil, err
			}
		}
	}
	raw := a.RawChanges
	if raw == nil {
		raw = []string{}
	}
	return sjson.SetBytes(out, "raw_changes", raw)
}
