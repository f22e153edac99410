package document

import "fmt"

// Outcome describes how an update was reconciled.
type Outcome int

const (
	// Applied means the update was an insert or was based on the current version.
	Applied Outcome = iota
	// Merged means a stale update was applied because its target line was unchanged.
	Merged
	// Relocated means a stale overwrite hit a changed line and was inserted instead.
	Relocated
	// Rejected means a stale blank or erase hit a changed line and was dropped.
	Rejected
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Merged:
		return "merged"
	case Relocated:
		return "relocated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the document produced by Reconcile together with how it was reached.
type Result struct {
	Document Document
	Outcome  Outcome
	// Change is the edit actually performed. It is zero when Outcome is Rejected.
	Change Change
}

// Accepted reports whether the update changed the document.
func (r Result) Accepted() bool {
	return r.Outcome != Rejected
}

// Reconcile computes the document that results from applying u to doc.
//
// Inserts are always applied at the requested line. Any other edit based on
// the current version is applied directly. An edit from a stale client is
// applied only if the line it targets still holds OldLine; otherwise a
// replacement is inserted above the current line and a blank or erase is
// rejected, leaving doc untouched.
//
// Reconcile never modifies doc or u. On error, the returned result carries
// doc unchanged.
func Reconcile(doc Document, u Update) (Result, error) {
	if u.Edit.Kind == Insert {
		return accept(doc, u.Line, u.Edit, Applied)
	}

	if err := checkBaseVersion(doc.Version, u.BaseVersion); err != nil {
		return Result{Document: doc, Outcome: Rejected}, err
	}

	if u.BaseVersion == doc.Version {
		return accept(doc, u.Line, u.Edit, Applied)
	}

	return reconcileStale(doc, u)
}

// reconcileStale handles an update whose base version is behind doc.
func reconcileStale(doc Document, u Update) (Result, error) {
	if u.Line < 0 || u.Line > doc.Len() {
		return Result{Document: doc, Outcome: Rejected}, outOfRange(u.Line, doc.Len())
	}

	if current, ok := doc.Line(u.Line); ok && current == u.OldLine {
		return accept(doc, u.Line, u.Edit, Merged)
	}

	switch u.Edit.Kind {
	case Overwrite, Erase:
	default:
		return Result{Document: doc, Outcome: Rejected}, fmt.Errorf("%w: %d", ErrUnknownEdit, u.Edit.Kind)
	}

	// The client cannot see what it would destroy; hand back current state.
	if u.Edit.IsDestructive() {
		return Result{Document: doc, Outcome: Rejected}, nil
	}

	return accept(doc, u.Line, InsertText(u.Edit.Text), Relocated)
}

func accept(doc Document, line int, e Edit, outcome Outcome) (Result, error) {
	next, err := applyEdit(doc, line, e)
	if err != nil {
		return Result{Document: doc, Outcome: Rejected}, err
	}

	return Result{
		Document: next,
		Outcome:  outcome,
		Change: Change{
			Version: next.Version,
			Line:    line,
			Edit:    e,
		},
	}, nil
}

func checkBaseVersion(current, base int) error {
	if base < 0 {
		return fmt.Errorf("%w: base version %d", ErrInvalidVersion, base)
	}

	if base > current {
		return fmt.Errorf("%w: base %d, current %d", ErrFutureVersion, base, current)
	}

	return nil
}
