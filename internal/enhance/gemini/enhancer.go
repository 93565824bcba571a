// Package gemini implements the enhancement capability on top of the Google
// GenAI API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/enhance"
	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/roledoc"
)

//go:embed prompt.md
var promptTemplate string

const (
	sourceLabel     = "gemini"
	defaultMaxItems = 10
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Enhancer asks Gemini for additional Knowledge/Ability statements.
type Enhancer struct {
	generator contentGenerator
	maxItems  int
	logger    *zap.Logger
}

// NewEnhancer wires a generator into the enhancement contract.
func NewEnhancer(generator contentGenerator, maxItems int, logger *zap.Logger) *Enhancer {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{
		generator: generator,
		maxItems:  maxItems,
		logger:    logger,
	}
}

func (e *Enhancer) Available() bool {
	return e != nil && e.generator != nil
}

func (e *Enhancer) Enhance(ctx context.Context, doc *roledoc.Document, skills []ksa.ItemDraft) ([]ksa.ItemDraft, error) {
	if !e.Available() {
		return nil, &enhance.EnhancementError{Reason: "generator is not configured"}
	}

	prompt, err := buildPrompt(doc, skills, e.maxItems)
	if err != nil {
		return nil, &enhance.EnhancementError{Reason: "building prompt", Err: err}
	}

	e.logger.Debug("gemini enhancement request",
		zap.String("role_code", doc.Code),
		zap.Int("skills", len(skills)),
		zap.Int("max_items", e.maxItems),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &enhance.EnhancementError{Reason: "generate content", Err: err}
	}

	items, err := parseResponse(raw, e.maxItems)
	if err != nil {
		return nil, &enhance.EnhancementError{Reason: "parsing response", Err: err}
	}

	e.logger.Debug("gemini enhancement response", zap.Int("items", len(items)))

	return items, nil
}

func buildPrompt(doc *roledoc.Document, skills []ksa.ItemDraft, maxItems int) (string, error) {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Text)
	}

	skillsJSON, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal skills: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{ROLE_TITLE}}", doc.Title)
	prompt = strings.ReplaceAll(prompt, "{{ROLE_TEXT}}", doc.Normalized)
	prompt = strings.ReplaceAll(prompt, "{{SKILLS_JSON}}", string(skillsJSON))
	prompt = strings.ReplaceAll(prompt, "{{MAX_ITEMS}}", strconv.Itoa(maxItems))

	return prompt, nil
}

type generatedItem struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// parseResponse extracts the JSON array from the raw model output and maps
// it into validated drafts. Items with unknown types, empty text or
// out-of-range confidence are skipped, not fatal.
func parseResponse(raw string, maxItems int) ([]ksa.ItemDraft, error) {
	cleaned := extractJSON(raw)

	var generated []generatedItem
	if err := json.Unmarshal([]byte(cleaned), &generated); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	items := make([]ksa.ItemDraft, 0, len(generated))
	for _, g := range generated {
		text := strings.TrimSpace(g.Text)
		if text == "" {
			continue
		}

		t, err := ksa.ParseType(g.Type)
		if err != nil || t == ksa.TypeSkill {
			continue
		}

		if g.Confidence < 0 || g.Confidence > 1 {
			continue
		}

		items = append(items, ksa.ItemDraft{
			Text:       text,
			Type:       t,
			Confidence: g.Confidence,
			Source:     sourceLabel,
		})
		if len(items) == maxItems {
			break
		}
	}

	return items, nil
}

// extractJSON strips a markdown code fence when the model wraps its output
// in one.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(strings.Trim(raw, "`"))
}
