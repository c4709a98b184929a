package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sw33tLie/rulewatch/pkg/changes"
	"github.com/sw33tLie/rulewatch/pkg/diff"
	"github.com/sw33tLie/rulewatch/pkg/redline"
	"github.com/sw33tLie/rulewatch/pkg/report"
)

func main() {
	// Usage: go run *.go -old baseline.txt -new current.txt [-html out.html]

	oldFlag := flag.String("old", "", "Path to the older text")
	newFlag := flag.String("new", "", "Path to the newer text")
	htmlFlag := flag.String("html", "", "Optional path for an HTML redline")

	// Parse the command-line flags
	flag.Parse()

	if *oldFlag == "" || *newFlag == "" {
		fmt.Println("Both -old and -new are required.")
		return
	}

	oldText, err := os.ReadFile(*oldFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	newText, err := os.ReadFile(*newFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// The diff engine works on lines; the same script feeds every consumer.
	a, b := diff.SplitLines(string(oldText)), diff.SplitLines(string(newText))
	script := diff.Compute(a, b)

	if !changes.HasChanges(script) {
		fmt.Println("No changes.")
		return
	}

	for _, line := range changes.Strings(changes.Extract(script, a, b), true) {
		fmt.Println(line)
	}
	fmt.Println(changes.Summarize(script))

	for _, row := range redline.Context(redline.Render(script, a, b), 2) {
		if row.Skipped > 0 {
			fmt.Printf("   ... %d unchanged ...\n", row.Skipped)
			continue
		}
		fmt.Printf("%4d %-8s %-40.40s | %4d %-8s %s\n", row.Old.LineNo, row.Old.Class, row.Old.Text, row.New.LineNo, row.New.Class, row.New.Text)
	}

	if *htmlFlag != "" {
		f, err := os.Create(*htmlFlag)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer f.Close()
		rep := report.New(report.Subject{DocumentID: *newFlag}, a, b, script, 5)
		if err := report.WriteHTML(f, rep); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println("HTML redline written to", *htmlFlag)
	}
}
