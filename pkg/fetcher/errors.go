package fetcher

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinPlausibleLength is the shortest text accepted as a real capture.
const MinPlausibleLength = 50

// FetchFailure means no usable text could be obtained for a locator. The
// audit cycle treats it as "skip this document", never as a snapshot.
type FetchFailure struct {
	Locator string
	Reason  string
	Err     error
}

func (f *FetchFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", f.Locator, f.Reason, f.Err)
	}
	return fmt.Sprintf("fetch %s: %s", f.Locator, f.Reason)
}

func (f *FetchFailure) Unwrap() error { return f.Err }

// Validate rejects results that are too short to be a rule page or that
// carry an error message instead of content.
func Validate(locator, text string) error {
	if strings.HasPrefix(strings.TrimSpace(text), "Error") {
		return &FetchFailure{Locator: locator, Reason: "content flagged as error"}
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < MinPlausibleLength {
		return &FetchFailure{Locator: locator, Reason: fmt.Sprintf("content too short (%d chars)", n)}
	}
	return nil
}
