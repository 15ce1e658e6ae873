package patcher

import (
	"fmt"
	"strings"
)

// ScanMode controls how the closing bracket of the literal is found.
type ScanMode int

const (
	// ScanQuoteAware ignores brackets that appear inside quoted strings
	// and JavaScript comments.
	ScanQuoteAware ScanMode = iota

	// ScanNaive counts every '[' and ']' regardless of quoting. A string
	// value containing a stray bracket can desynchronize it.
	ScanNaive
)

// String implements fmt.Stringer.
func (m ScanMode) String() string {
	switch m {
	case ScanQuoteAware:
		return "quote-aware"
	case ScanNaive:
		return "naive"
	default:
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
}

// ParseScanMode parses "quote-aware" or "naive". An empty string selects
// [ScanQuoteAware].
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "quote-aware", "quoteaware":
		return ScanQuoteAware, nil
	case "naive":
		return ScanNaive, nil
	default:
		return 0, fmt.Errorf("unknown scan mode %q (expected 'quote-aware' or 'naive')", s)
	}
}

// region is the byte span of a marker region inside a document.
type region struct {
	anchor int // start of the anchor text
	open   int // index of the opening '['
	close  int // index of the matching ']'
	end    int // first byte after the region (past an optional ';')
}

func locate(doc string, o options) (region, error) {
	anchor := findAnchor(doc, o.marker.Anchor())
	if anchor < 0 {
		return region{}, fmt.Errorf("%w: %q", ErrMarkerNotFound, o.marker.Anchor())
	}

	from := anchor + len(o.marker.Anchor())
	rel := strings.IndexByte(doc[from:], '[')
	if rel < 0 {
		return region{}, fmt.Errorf("%w: %q", ErrOpenBracketNotFound, o.marker.Anchor())
	}
	open := from + rel

	closeIdx := matchBracket(doc, open, o.scan)
	if closeIdx < 0 {
		return region{}, fmt.Errorf("%w: %q opened at byte %d never closes", ErrUnbalancedLiteral, o.marker.Anchor(), open)
	}

	end := closeIdx + 1
	if end < len(doc) && doc[end] == ';' {
		end++
	}

	return region{anchor: anchor, open: open, close: closeIdx, end: end}, nil
}

// findAnchor returns the first occurrence of anchor that is not part of a
// longer identifier, so "const PROJECTS" does not match "const PROJECTS_OLD".
func findAnchor(doc, anchor string) int {
	offset := 0
	for {
		idx := strings.Index(doc[offset:], anchor)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(anchor)
		if (start == 0 || !isIdentByte(doc[start-1])) && (end == len(doc) || !isIdentByte(doc[end])) {
			return start
		}
		offset = start + 1
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// matchBracket returns the index of the ']' that balances the '[' at open,
// or -1 if depth never returns to zero.
func matchBracket(doc string, open int, mode ScanMode) int {
	depth := 0
	var quote byte
	for i := open; i < len(doc); i++ {
		c := doc[i]

		if mode == ScanQuoteAware && quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		if mode == ScanQuoteAware && c == '/' && i+1 < len(doc) {
			if skip := skipComment(doc, i); skip > i {
				i = skip
				continue
			}
		}

		switch c {
		case '"', '\'', '`':
			if mode == ScanQuoteAware {
				quote = c
			}
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipComment returns the index of the last byte of the comment starting at
// i, or i if no comment starts there. An unterminated block comment runs to
// the end of doc.
func skipComment(doc string, i int) int {
	switch doc[i+1] {
	case '/':
		if nl := strings.IndexByte(doc[i+2:], '\n'); nl >= 0 {
			return i + 2 + nl
		}
		return len(doc) - 1
	case '*':
		if end := strings.Index(doc[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 1
		}
		return len(doc) - 1
	}
	return i
}
