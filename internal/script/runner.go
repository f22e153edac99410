package script

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/serroba/line-docs/internal/collab"
	"github.com/serroba/line-docs/internal/document"
)

// Env is the environment expectations are evaluated in.
type Env struct {
	Doc     document.Document `expr:"doc"`
	Outcome string            `expr:"outcome"`
	Err     string            `expr:"err"`
	Changes []document.Change `expr:"changes"`
}

// StepResult is what running a single step produced.
type StepResult struct {
	Index int
	Step  Step

	// Before is the document prior to an update, when it could be fetched,
	// or the stale copy of a catch-up.
	Before *document.Document
	Env    Env
	Err    error

	Passed bool
	// ExpectErr is set when the expectation failed to compile or run.
	ExpectErr error
}

// Summary is the outcome of a whole script.
type Summary struct {
	Name   string
	Steps  []StepResult
	Failed int
}

// OK reports whether every step passed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Runner executes scripts against a service.
type Runner struct {
	svc    *collab.Service
	report *Reporter
}

// NewRunner creates a runner. report may be nil.
func NewRunner(svc *collab.Service, report *Reporter) *Runner {
	return &Runner{svc: svc, report: report}
}

// Run seeds the script's documents and executes its steps in order. The
// returned error is only for failures to seed; step failures are counted in
// the summary.
func (r *Runner) Run(s Script) (Summary, error) {
	for i, seed := range s.Documents {
		if _, err := r.svc.Create(seed.Document()); err != nil {
			return Summary{}, fmt.Errorf("%s: seed document %d: %w", s.Name, i+1, err)
		}
	}

	summary := Summary{Name: s.Name}

	for i, step := range s.Steps {
		res := r.runStep(i+1, step)
		if !res.Passed {
			summary.Failed++
		}

		summary.Steps = append(summary.Steps, res)

		if r.report != nil {
			r.report.Step(res)
		}
	}

	if r.report != nil {
		r.report.Summary(summary)
	}

	return summary, nil
}

func (r *Runner) runStep(index int, step Step) StepResult {
	res := StepResult{Index: index, Step: step}

	switch {
	case step.Create != nil:
		res.Env.Doc, res.Err = r.svc.Create(step.Create.Document())
	case step.Fetch != nil:
		res.Env.Doc, res.Err = r.svc.Fetch(*step.Fetch)
	case step.Delete != nil:
		res.Err = r.svc.Delete(*step.Delete)
	case step.Update != nil:
		r.runUpdate(&res, *step.Update)
	case step.Changes != nil:
		res.Env.Changes, res.Err = r.svc.Changes(step.Changes.ID, step.Changes.Since)
		if res.Err == nil {
			res.Env.Doc, res.Err = r.svc.Fetch(step.Changes.ID)
		}
	case step.CatchUp != nil:
		stale := step.CatchUp.Document()
		res.Before = &stale
		res.Env.Doc, res.Err = r.svc.CatchUp(stale)
	}

	if res.Err != nil {
		res.Env.Err = res.Err.Error()
	}

	res.Passed, res.ExpectErr = evaluate(step.Expect, res)

	return res
}

func (r *Runner) runUpdate(res *StepResult, us UpdateStep) {
	u, err := us.Update()
	if err != nil {
		res.Err = err
		return
	}

	// A missing document is reported by Update below.
	if before, err := r.svc.Fetch(u.ID); err == nil {
		res.Before = &before
	}

	result, err := r.svc.Update(u)
	res.Err = err

	if err == nil {
		res.Env.Doc = result.Document
		res.Env.Outcome = result.Outcome.String()
	}
}

// evaluate decides whether a step passed. Without an expectation a step
// passes when it did not fail; with one, the expectation decides and may
// inspect err.
func evaluate(expectation string, res StepResult) (bool, error) {
	if expectation == "" {
		return res.Err == nil, nil
	}

	program, err := expr.Compile(expectation, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, res.Env)
	if err != nil {
		return false, err
	}

	passed, _ := out.(bool)

	return passed, nil
}
