package roledoc

import (
	"errors"
	"strings"
	"testing"
)

const sampleDescription = `AFSC 1N0X1, Intelligence Analyst

Performs and manages intelligence analysis activities and functions.
• Analyzes intelligence information and prepares assessments.
• Operates "intelligence" systems and databases.

| grade | skill level | duty |
| E-3   | 3           | apprentice |

Develops    and maintains   analytical tools.
`

func TestParseExtractsHeader(t *testing.T) {
	doc, err := Parse(sampleDescription)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Code != "1N0X1" {
		t.Fatalf("expected code 1N0X1, got %q", doc.Code)
	}
	if doc.Title != "Intelligence Analyst" {
		t.Fatalf("expected title Intelligence Analyst, got %q", doc.Title)
	}
}

func TestParseNormalizesBody(t *testing.T) {
	doc, err := Parse(sampleDescription)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(doc.Normalized, "AFSC 1N0X1") {
		t.Fatalf("header line leaked into normalized text:\n%s", doc.Normalized)
	}
	if strings.Contains(doc.Normalized, "•") {
		t.Fatalf("bullet glyph not unified:\n%s", doc.Normalized)
	}
	if !strings.Contains(doc.Normalized, `- Operates "intelligence" systems`) {
		t.Fatalf("expected unified bullet and quotes:\n%s", doc.Normalized)
	}
	if strings.Contains(doc.Normalized, "grade") {
		t.Fatalf("table line not stripped:\n%s", doc.Normalized)
	}
	if strings.Contains(doc.Normalized, "Develops    and") {
		t.Fatalf("whitespace not collapsed:\n%s", doc.Normalized)
	}
	if strings.Contains(doc.Normalized, "\n\n\n") {
		t.Fatalf("blank lines not collapsed:\n%s", doc.Normalized)
	}
}

func TestParseStripsTabSeparatedTables(t *testing.T) {
	raw := "AFSC 1N0X1, Intelligence Analyst\n\n" +
		"Performs and manages intelligence analysis activities and functions.\n\n" +
		"Grade\tSkill Level\tDuty Title\tAuth\n" +
		"E-3\t3\tApprentice Analyst\t120\n" +
		"E-5\t5\tJourneyman Analyst\t80\n"

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(doc.Normalized, "Apprentice Analyst") {
		t.Fatalf("tab-separated table row not stripped:\n%s", doc.Normalized)
	}
	if strings.Contains(doc.Normalized, "Skill Level") {
		t.Fatalf("tab-separated table header not stripped:\n%s", doc.Normalized)
	}
	if !strings.Contains(doc.Normalized, "Performs and manages") {
		t.Fatalf("prose lost while stripping tables:\n%s", doc.Normalized)
	}
}

func TestParseAlternateHeaderForms(t *testing.T) {
	padding := strings.Repeat("Performs intelligence analysis duties and functions.\n", 3)

	cases := []struct {
		name  string
		first string
	}{
		{"dash", "1N4X1 - Fusion Analyst"},
		{"colon", "1N4X1: Fusion Analyst"},
		{"afsc no comma", "AFSC 1N4X1 Fusion Analyst"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse(tc.first + "\n" + padding)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Code != "1N4X1" || doc.Title != "Fusion Analyst" {
				t.Fatalf("got code=%q title=%q", doc.Code, doc.Title)
			}
		})
	}
}

func TestParseTooShort(t *testing.T) {
	_, err := Parse("AFSC 1N0X1, Intelligence Analyst")

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseHeaderNotFound(t *testing.T) {
	raw := strings.Repeat("performs routine duties without any heading at all\n", 4)

	var perr *ParseError
	if _, err := Parse(raw); !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(perr.Reason, "header not found") {
		t.Fatalf("unexpected reason: %q", perr.Reason)
	}
}
