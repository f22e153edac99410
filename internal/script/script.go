package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/serroba/line-docs/internal/document"
)

// ErrInvalidStep is returned when a step does not name exactly one action.
var ErrInvalidStep = errors.New("invalid step")

// Script is a sequence of service calls with optional expectations.
type Script struct {
	Name      string `yaml:"name"`
	Documents []Seed `yaml:"documents"`
	Steps     []Step `yaml:"steps"`
}

// Seed is the initial state of a document created before the steps run.
type Seed struct {
	Version int      `yaml:"version"`
	Lines   []string `yaml:"lines"`
}

// Document converts the seed into a document without an id.
func (s Seed) Document() document.Document {
	return document.Document{Version: s.Version, Lines: s.Lines}
}

// Step is a single action. Exactly one of the action fields must be set.
type Step struct {
	Create  *Seed        `yaml:"create"`
	Fetch   *int         `yaml:"fetch"`
	Delete  *int         `yaml:"delete"`
	Update  *UpdateStep  `yaml:"update"`
	Changes *ChangesStep `yaml:"changes"`
	CatchUp *CatchUpStep `yaml:"catchup"`

	// Expect is an expression over doc, outcome, err and changes that must
	// evaluate to true.
	Expect string `yaml:"expect"`
}

// UpdateStep describes a document.Update. Erase and Insert select the edit
// kind; neither means overwrite with Text.
type UpdateStep struct {
	ID     int    `yaml:"id"`
	Base   int    `yaml:"base"`
	Line   int    `yaml:"line"`
	Old    string `yaml:"old"`
	Text   string `yaml:"text"`
	Erase  bool   `yaml:"erase"`
	Insert bool   `yaml:"insert"`
}

// ChangesStep asks for the change log of a document since a version.
type ChangesStep struct {
	ID    int `yaml:"id"`
	Since int `yaml:"since"`
}

// CatchUpStep replays the change log onto a client's older copy of a
// document.
type CatchUpStep struct {
	ID      int      `yaml:"id"`
	Version int      `yaml:"version"`
	Lines   []string `yaml:"lines"`
}

// Document converts the step into the stale copy being caught up.
func (c CatchUpStep) Document() document.Document {
	return document.Document{ID: c.ID, Version: c.Version, Lines: c.Lines}
}

// Update converts the step into a document.Update.
func (u UpdateStep) Update() (document.Update, error) {
	var edit document.Edit

	switch {
	case u.Erase && u.Insert:
		return document.Update{}, fmt.Errorf("%w: update cannot both erase and insert", ErrInvalidStep)
	case u.Erase:
		edit = document.EraseLine()
	case u.Insert:
		edit = document.InsertText(u.Text)
	default:
		edit = document.OverwriteWith(u.Text)
	}

	return document.Update{
		ID:          u.ID,
		BaseVersion: u.Base,
		Line:        u.Line,
		OldLine:     u.Old,
		Edit:        edit,
	}, nil
}

// Kind returns the name of the step's action.
func (s Step) Kind() string {
	switch {
	case s.Create != nil:
		return "create"
	case s.Fetch != nil:
		return "fetch"
	case s.Delete != nil:
		return "delete"
	case s.Update != nil:
		return "update"
	case s.Changes != nil:
		return "changes"
	case s.CatchUp != nil:
		return "catchup"
	default:
		return ""
	}
}

func (s Step) validate() error {
	set := 0

	for _, present := range []bool{s.Create != nil, s.Fetch != nil, s.Delete != nil, s.Update != nil, s.Changes != nil, s.CatchUp != nil} {
		if present {
			set++
		}
	}

	if set != 1 {
		return fmt.Errorf("%w: expected exactly one action, got %d", ErrInvalidStep, set)
	}

	if s.Update != nil {
		if _, err := s.Update.Update(); err != nil {
			return err
		}
	}

	return nil
}

// Parse decodes a script. Unknown fields are rejected.
func Parse(name string, data []byte) (Script, error) {
	var s Script
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.Strict()); err != nil {
		return Script{}, fmt.Errorf("%s: %w", name, err)
	}

	if s.Name == "" {
		s.Name = name
	}

	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return Script{}, fmt.Errorf("%s: step %d: %w", name, i+1, err)
		}
	}

	return s, nil
}

// Load reads and parses a script file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}

	return Parse(path, data)
}
