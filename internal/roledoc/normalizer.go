// Package roledoc turns raw role-description text into an immutable
// Document with an extracted code/title header and normalized body text.
package roledoc

import (
	"fmt"
	"regexp"
	"strings"
)

// Document is created once per pipeline run and never mutated afterwards.
type Document struct {
	Code       string
	Title      string
	Raw        string
	Normalized string
}

// ParseError means the raw text could not be turned into a Document.
// It is fatal: nothing can be extracted from an unparseable description.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse role description: %s", e.Reason)
}

const (
	// Descriptions shorter than this carry no extractable content.
	minRawLength = 80
	// Header must appear within the first few lines.
	headerScanLines = 5
)

// Header patterns are tried in order against each of the first lines.
// Submatch 1 is the role code, submatch 2 the title.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^AFSC\s+([0-9A-Z]{3,})\s*[,:-]\s*(.+)$`),
	regexp.MustCompile(`^AFSC\s+([0-9A-Z]{3,})\s+(.+)$`),
	regexp.MustCompile(`^([0-9A-Z]{3,})\s*[-–:]\s*(.+)$`),
}

var (
	bulletGlyphs = strings.NewReplacer(
		"•", "- ",
		"●", "- ",
		"▪", "- ",
		"‣", "- ",
		"·", "- ",
	)
	quoteGlyphs = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
	innerSpace = regexp.MustCompile(`[ \t]+`)
)

// Parse validates the raw text, extracts the code/title header and produces
// the normalized body. Deterministic and side-effect free.
func Parse(raw string) (*Document, error) {
	if len(strings.TrimSpace(raw)) < minRawLength {
		return nil, &ParseError{Reason: fmt.Sprintf("text too short (< %d characters)", minRawLength)}
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	code, title, headerIdx := extractHeader(lines)
	if headerIdx < 0 {
		return nil, &ParseError{Reason: "header not found"}
	}

	return &Document{
		Code:       code,
		Title:      title,
		Raw:        raw,
		Normalized: normalize(lines[headerIdx+1:]),
	}, nil
}

func extractHeader(lines []string) (code, title string, idx int) {
	limit := headerScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		for _, pattern := range headerPatterns {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			return m[1], strings.TrimRight(strings.TrimSpace(m[2]), "."), i
		}
	}

	return "", "", -1
}

// normalize unifies glyphs, drops table-like lines, collapses whitespace and
// repeated blank lines.
func normalize(lines []string) string {
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = quoteGlyphs.Replace(bulletGlyphs.Replace(line))
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false

		if tableLike(line) {
			continue
		}

		out = append(out, innerSpace.ReplaceAllString(trimmed, " "))
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}

// tableLike reports whether a line carries enough column separators to be a
// table row rather than prose. It must see the line before inner whitespace
// is collapsed, otherwise tab-separated rows pass as prose.
func tableLike(line string) bool {
	return strings.Count(line, "|") >= 3 || strings.Count(line, "\t") >= 3
}
