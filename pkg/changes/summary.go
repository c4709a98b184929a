package changes

import (
	"fmt"

	"github.com/sw33tLie/rulewatch/pkg/diff"
)

// Summary counts lines by what happened to them.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Replaced  int `json:"replaced_blocks"`
	Unchanged int `json:"unchanged"`
}

// Summarize counts the lines touched by script. Lines of a replaced block
// count as both removed and added.
func Summarize(script diff.Script) Summary {
	var s Summary
	for _, op := range script {
		switch op.Tag {
		case diff.Equal:
			s.Unchanged += op.OldLen()
		case diff.Delete:
			s.Removed += op.OldLen()
		case diff.Insert:
			s.Added += op.NewLen()
		case diff.Replace:
			s.Replaced++
			s.Removed += op.OldLen()
			s.Added += op.NewLen()
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("+%d -%d (%d replaced blocks, %d unchanged)", s.Added, s.Removed, s.Replaced, s.Unchanged)
}
