package patcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMarkerNotFound is returned when the document has no anchor for the literal.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrOpenBracketNotFound is returned when no '[' follows the anchor.
	ErrOpenBracketNotFound = errors.New("opening bracket not found after marker")

	// ErrUnbalancedLiteral is returned when the literal's brackets never close.
	ErrUnbalancedLiteral = errors.New("unbalanced literal")

	// ErrLiteralNotJSON is returned by [Extract] when the literal body cannot
	// be read as JSON (for example when object keys are unquoted).
	ErrLiteralNotJSON = errors.New("literal is not JSON")
)

// Record is one entry of the payload written into the literal.
type Record map[string]any

// Auxiliary holds the optional single-occurrence substitutions applied
// alongside the literal. Empty fields leave the document untouched.
type Auxiliary struct {
	// Background replaces the URL of the first background image reference.
	Background string

	// Title replaces the inner text of the first <title> element.
	Title string
}

// Result is the outcome of a successful [Patch].
type Result struct {
	// Text is the full patched document.
	Text string

	// Count is the number of records written into the literal.
	Count int

	// BackgroundReplaced reports whether a background reference was rewritten.
	BackgroundReplaced bool

	// TitleReplaced reports whether a <title> element was rewritten.
	TitleReplaced bool
}

// Marker names the literal assignment the patcher looks for.
//
// The anchor text is the keyword followed by a single space and the name,
// for example "const PROJECTS". An empty keyword makes the bare name the anchor.
type Marker struct {
	Keyword string
	Name    string
}

// DefaultMarker returns the marker used when none is configured.
func DefaultMarker() Marker {
	return Marker{Keyword: "const", Name: "PROJECTS"}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate checks that the marker would produce a usable JS assignment.
func (m Marker) Validate() error {
	if !identPattern.MatchString(m.Name) {
		return fmt.Errorf("marker name %q is not a valid identifier", m.Name)
	}
	switch m.Keyword {
	case "", "const", "let", "var":
		return nil
	default:
		return fmt.Errorf("marker keyword must be const, let, var or empty, got %q", m.Keyword)
	}
}

// Anchor returns the text that introduces the literal in the document.
func (m Marker) Anchor() string {
	if m.Keyword == "" {
		return m.Name
	}
	return m.Keyword + " " + m.Name
}

// String implements fmt.Stringer.
func (m Marker) String() string {
	return m.Anchor()
}

type options struct {
	marker Marker
	scan   ScanMode
}

// Option configures [Patch] and [Extract].
type Option func(*options)

// WithMarker selects the literal to operate on. Defaults to [DefaultMarker].
func WithMarker(m Marker) Option {
	return func(o *options) {
		o.marker = m
	}
}

// WithScanMode selects how brackets are matched. Defaults to [ScanQuoteAware].
func WithScanMode(mode ScanMode) Option {
	return func(o *options) {
		o.scan = mode
	}
}

func newOptions(opts []Option) options {
	o := options{
		marker: DefaultMarker(),
		scan:   ScanQuoteAware,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Patch replaces the marker region of doc with records and applies any
// auxiliary substitutions.
//
// The returned text equals doc outside the replaced regions. The literal is
// always written back as "<anchor> = <records>;". Auxiliary substitutions only
// search the text around the literal, never the freshly written records, and
// a missing target is a silent no-op.
//
// Patch fails with [ErrMarkerNotFound], [ErrOpenBracketNotFound] or
// [ErrUnbalancedLiteral] when the document does not have the expected shape.
func Patch(doc string, records []Record, aux Auxiliary, opts ...Option) (Result, error) {
	o := newOptions(opts)

	reg, err := locate(doc, o)
	if err != nil {
		return Result{}, err
	}

	rendered, err := Render(records)
	if err != nil {
		return Result{}, err
	}

	head := doc[:reg.anchor]
	tail := doc[reg.end:]

	var res Result
	if aux.Background != "" {
		head, tail, res.BackgroundReplaced = replaceAround(head, tail, func(s string) (string, bool) {
			return replaceBackground(s, aux.Background)
		})
	}
	if aux.Title != "" {
		head, tail, res.TitleReplaced = replaceTitle(head, doc[reg.anchor:reg.end], tail, aux.Title)
	}

	var b strings.Builder
	b.Grow(len(head) + len(rendered) + len(tail) + len(o.marker.Anchor()) + 4)
	b.WriteString(head)
	b.WriteString(o.marker.Anchor())
	b.WriteString(" = ")
	b.WriteString(rendered)
	b.WriteString(";")
	b.WriteString(tail)

	res.Text = b.String()
	res.Count = len(records)
	return res, nil
}

// replaceAround applies a single-occurrence replacement to head first and,
// if nothing matched there, to tail.
func replaceAround(head, tail string, replace func(string) (string, bool)) (string, string, bool) {
	if out, ok := replace(head); ok {
		return out, tail, true
	}
	if out, ok := replace(tail); ok {
		return head, out, true
	}
	return head, tail, false
}
