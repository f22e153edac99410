package script

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ReporterConfig holds configuration for creating a reporter.
type ReporterConfig struct {
	Out io.Writer
	// Color enables ANSI colors regardless of the terminal.
	Color bool
	// Diff prints a line diff for accepted updates instead of the full document.
	Diff bool
}

// Reporter writes a human readable account of a script run.
type Reporter struct {
	out  io.Writer
	diff bool

	pass, fail, faint, added, removed *color.Color
}

// NewReporter creates a new reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	r := &Reporter{
		out:     cfg.Out,
		diff:    cfg.Diff,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
	}

	for _, c := range []*color.Color{r.pass, r.fail, r.faint, r.added, r.removed} {
		if cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

// Step reports a single step.
func (r *Reporter) Step(res StepResult) {
	status := r.pass.Sprint("ok  ")
	if !res.Passed {
		status = r.fail.Sprint("FAIL")
	}

	fmt.Fprintf(r.out, "%s #%d %s\n", status, res.Index, describe(res))

	if res.Step.Expect != "" {
		fmt.Fprintf(r.out, "     %s %s\n", r.faint.Sprint("expect:"), res.Step.Expect)
	}

	if res.ExpectErr != nil {
		fmt.Fprintf(r.out, "     %s %v\n", r.fail.Sprint("expect error:"), res.ExpectErr)
	}

	switch {
	case res.Err != nil:
	case (res.Step.Update != nil || res.Step.CatchUp != nil) && r.diff && res.Before != nil:
		r.writeDiff(res.Before.Lines, res.Env.Doc.Lines)
	case res.Step.Update != nil, res.Step.Fetch != nil, res.Step.Create != nil, res.Step.CatchUp != nil:
		r.writeLines(res.Env.Doc.Lines)
	case res.Step.Changes != nil:
		for _, c := range res.Env.Changes {
			fmt.Fprintf(r.out, "     v%d %s line %d %q\n", c.Version, c.Edit.Kind, c.Line, c.Edit.Text)
		}
	}
}

// Summary reports the totals of a run.
func (r *Reporter) Summary(s Summary) {
	if s.OK() {
		fmt.Fprintf(r.out, "%s: %s\n", s.Name, r.pass.Sprintf("%d steps passed", len(s.Steps)))
		return
	}

	fmt.Fprintf(r.out, "%s: %s\n", s.Name, r.fail.Sprintf("%d of %d steps failed", s.Failed, len(s.Steps)))
}

func (r *Reporter) writeLines(lines []string) {
	for i, line := range lines {
		fmt.Fprintf(r.out, "     %s %s\n", r.faint.Sprintf("%3d|", i), line)
	}
}

func (r *Reporter) writeDiff(before, after []string) {
	for _, d := range LineDiff(before, after) {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(r.out, "     %s\n", r.added.Sprint("+ "+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(r.out, "     %s\n", r.removed.Sprint("- "+line))
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(r.out, "     %s\n", r.faint.Sprint("  "+line))
			}
		}
	}
}

func describe(res StepResult) string {
	s := res.Step

	var desc string

	switch {
	case s.Create != nil:
		desc = fmt.Sprintf("create -> doc %d v%d", res.Env.Doc.ID, res.Env.Doc.Version)
	case s.Fetch != nil:
		desc = fmt.Sprintf("fetch doc %d", *s.Fetch)
	case s.Delete != nil:
		desc = fmt.Sprintf("delete doc %d", *s.Delete)
	case s.Update != nil:
		u, _ := s.Update.Update()
		desc = fmt.Sprintf("update doc %d %s line %d from v%d", u.ID, u.Edit.Kind, u.Line, u.BaseVersion)

		if res.Err == nil {
			desc += fmt.Sprintf(" -> v%d (%s)", res.Env.Doc.Version, res.Env.Outcome)
		}
	case s.Changes != nil:
		desc = fmt.Sprintf("changes doc %d since v%d", s.Changes.ID, s.Changes.Since)
	case s.CatchUp != nil:
		desc = fmt.Sprintf("catchup doc %d from v%d", s.CatchUp.ID, s.CatchUp.Version)

		if res.Err == nil {
			desc += fmt.Sprintf(" -> v%d", res.Env.Doc.Version)
		}
	}

	if res.Err != nil {
		desc += ": " + res.Err.Error()
	}

	return desc
}

// LineDiff computes a line-level diff between two documents' lines.
func LineDiff(before, after []string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(joinLines(before), joinLines(after))
	diffs := dmp.DiffMain(a, b, false)

	return dmp.DiffCharsToLines(diffs, lines)
}

// joinLines terminates every line with a newline so that the last line
// compares equal to the same line elsewhere.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
