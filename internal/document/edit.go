package document

// EditKind represents the type of line edit.
type EditKind int

const (
	// Overwrite replaces the text of an existing line. Empty text blanks the line.
	Overwrite EditKind = iota
	// Erase removes a line entirely.
	Erase
	// Insert adds a new line, shifting the target line and everything after it down.
	Insert
)

// String returns the string representation of the edit kind.
func (k EditKind) String() string {
	switch k {
	case Overwrite:
		return "overwrite"
	case Erase:
		return "erase"
	case Insert:
		return "insert"
	default:
		return "unknown"
	}
}

// Edit is a single line edit. Text is ignored for Erase.
type Edit struct {
	Kind EditKind
	Text string
}

// OverwriteWith creates an overwrite edit.
func OverwriteWith(text string) Edit {
	return Edit{Kind: Overwrite, Text: text}
}

// EraseLine creates an erase edit.
func EraseLine() Edit {
	return Edit{Kind: Erase}
}

// InsertText creates an insert edit.
func InsertText(text string) Edit {
	return Edit{Kind: Insert, Text: text}
}

// IsDestructive reports whether the edit would discard the content of the
// target line without supplying replacement text.
func (e Edit) IsDestructive() bool {
	return e.Kind == Erase || (e.Kind == Overwrite && e.Text == "")
}

// Update is a client edit against the document identified by ID, computed
// while the client believed BaseVersion was current.
type Update struct {
	ID          int
	BaseVersion int
	Line        int
	// OldLine is what the client saw at Line. It is compared, never applied.
	OldLine string
	Edit    Edit
}

// Change records an accepted edit and the version it produced.
type Change struct {
	Version int
	Line    int
	Edit    Edit
}
