package entities

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sw33tLie/rulewatch/pkg/changes"
)

const analysisSummary = "Rule change detected. Entity analysis completed."

var months = `(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan\.|Feb\.|Mar\.|Apr\.|Aug\.|Sept?\.|Oct\.|Nov\.|Dec\.)`

var patternSources = map[Category][]string{
	Date: {
		months + `\s+\d{1,2},\s+\d{4}`,
		months + `\s+\d{4}`,
		`\b\d{1,2}/\d{1,2}/\d{2,4}\b`,
		`\b\d{4}-\d{2}-\d{2}\b`,
		`\b\d+\s+(?:calendar\s+|business\s+)?(?:days|months|years)\b`,
	},
	Money: {
		`\$\s?\d[\d,]*(?:\.\d+)?(?:\s(?:thousand|million|billion))?`,
		`\b\d[\d,]*(?:\.\d+)?\s(?:dollars|USD)\b`,
	},
	Organization: {
		`\b(?:[A-Z][a-z]+\s){1,4}(?:Commission|Authority|Board|Corporation|Association|Exchange|Agency|Department)\b`,
		`\b[A-Z][A-Za-z&]*(?:\s[A-Z][A-Za-z&]*)*,?\s(?:Inc\.|LLC|L\.L\.C\.|Corp\.|LLP)`,
	},
	Law: {
		`\b(?:FINRA\s|NASD\s|SEA\s|MSRB\s)?Rules?\s\d+[A-Za-z0-9.\-]*(?:\([A-Za-z0-9]+\))*`,
		`\bSections?\s\d+[A-Za-z]*(?:\([A-Za-z0-9]+\))*`,
		`\b(?:[A-Z][a-z]+\s){1,5}Act(?:\sof\s\d{4})?`,
		`\bRegulation\s[A-Z]{1,4}\b`,
		`\b\d+\sCFR\s\d+(?:\.\d+[A-Za-z0-9\-]*)?`,
	},
}

// knownOrganizations are matched verbatim in addition to the patterns.
var knownOrganizations = []string{
	"SEC", "FINRA", "NASD", "MSRB", "CFTC", "FDIC", "OCC", "NFA", "SIPC", "DTCC", "NYSE", "Nasdaq",
	"Federal Reserve",
}

var knownLocations = []string{
	"United States", "District of Columbia", "Washington, D.C.", "Puerto Rico",
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut", "Delaware",
	"Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey", "New Mexico",
	"New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
	"Canada", "Mexico", "United Kingdom", "European Union",
}

type recognizer struct {
	patterns map[Category][]*regexp.Regexp
}

var (
	sharedOnce sync.Once
	shared     *recognizer
	sharedErr  error
)

// loadRecognizer builds the process-wide recognizer on first use.
func loadRecognizer() (*recognizer, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = buildRecognizer(patternSources, knownOrganizations, knownLocations)
	})
	return shared, sharedErr
}

func buildRecognizer(sources map[Category][]string, orgs, locations []string) (*recognizer, error) {
	r := &recognizer{patterns: map[Category][]*regexp.Regexp{}}
	for c, srcs := range sources {
		for _, src := range srcs {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, err
			}
			r.patterns[c] = append(r.patterns[c], re)
		}
	}
	for c, words := range map[Category][]string{Organization: orgs, Location: locations} {
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return nil, err
		}
		r.patterns[c] = append(r.patterns[c], re)
	}
	return r, nil
}

func (r *recognizer) extract(text string) Entities {
	out := Empty()
	if r == nil || text == "" {
		return out
	}
	for _, c := range Categories {
		for _, re := range r.patterns[c] {
			for _, m := range re.FindAllString(text, -1) {
				out.add(c, m)
			}
		}
	}
	out.finalize()
	return out
}

// RuleExtractor is the default Extractor. It shares one lazily built
// recognizer per process; if that cannot be built every category comes
// back empty.
type RuleExtractor struct{}

// NewRuleExtractor returns the default extractor together with the error,
// if any, from building the shared recognizer. The extractor is usable
// either way.
func NewRuleExtractor() (*RuleExtractor, error) {
	_, err := loadRecognizer()
	return &RuleExtractor{}, err
}

// Analyze implements Extractor. Added and removed lines are analyzed
// separately, each side joined into one text.
func (RuleExtractor) Analyze(lines []changes.Line) Analysis {
	r, err := loadRecognizer()
	if err != nil {
		r = nil
	}
	return Analysis{
		Summary:    analysisSummary,
		Added:      r.extract(strings.Join(changes.AddedText(lines), " ")),
		Removed:    r.extract(strings.Join(changes.RemovedText(lines), " ")),
		RawChanges: changes.Strings(lines, true),
	}
}
