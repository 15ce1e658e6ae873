package patcher

import (
	"html"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
)

// backgroundPattern matches a CSS background image reference such as
// background-image: url('img/bg.jpg'). Group 3 is the URL.
var backgroundPattern = regexp.MustCompile(`(?i)(background(?:-image)?\s*:\s*url\(\s*)(['"]?)([^'")]*)(['"]?)(\s*\))`)

// urlEscaper percent-encodes the characters that would end a url() token early.
var urlEscaper = strings.NewReplacer(
	`"`, "%22",
	`'`, "%27",
	`(`, "%28",
	`)`, "%29",
	`\`, "%5C",
	" ", "%20",
	"\t", "%09",
	"\n", "%0A",
	"\r", "%0D",
)

// replaceBackground rewrites the URL of the first background image reference
// in s, keeping its quote style.
func replaceBackground(s, url string) (string, bool) {
	loc := backgroundPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, false
	}
	// loc[6]:loc[7] is the URL group
	return s[:loc[6]] + urlEscaper.Replace(url) + s[loc[7]:], true
}

// replaceTitle rewrites the inner text of the first <title> element that
// lies outside region. head, region and tail are tokenized as one document,
// so a tail that starts inside a <script> is still read as script text.
func replaceTitle(head, region, tail, title string) (string, string, bool) {
	lo := len(head)
	hi := lo + len(region)

	start, end, ok := findTitle(head+region+tail, lo, hi)
	if !ok {
		return head, tail, false
	}

	escaped := html.EscapeString(title)
	if end <= lo {
		return head[:start] + escaped + head[end:], tail, true
	}
	return head, tail[:start-hi] + escaped + tail[end-hi:], true
}

// findTitle returns the byte span of the content of the first <title>
// element that does not overlap [lo, hi).
//
// Offsets come from summing the raw length of every token, so they index
// straight into s. Script and style bodies are raw text to the tokenizer,
// which keeps a "<title>" inside a script from matching.
func findTitle(s string, lo, hi int) (start, end int, ok bool) {
	z := nethtml.NewTokenizer(strings.NewReader(s))
	offset := 0
	start = -1

	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			return 0, 0, false
		}
		// Raw must be measured before TagName, which lowercases in place.
		n := len(z.Raw())

		switch tt {
		case nethtml.StartTagToken:
			name, _ := z.TagName()
			if start < 0 && string(name) == "title" {
				start = offset + n
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			if start >= 0 && string(name) == "title" {
				if offset <= lo || start >= hi {
					return start, offset, true
				}
				start = -1
			}
		}

		offset += n
	}
}
