// Package pipeline drives one extraction-consolidation run: normalize,
// extract, enhance, align, consolidate, persist, record.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/consolidate"
	"github.com/spigell/ksa-graph/internal/enhance"
	"github.com/spigell/ksa-graph/internal/extract"
	"github.com/spigell/ksa-graph/internal/graph"
	"github.com/spigell/ksa-graph/internal/ksa"
	"github.com/spigell/ksa-graph/internal/roledoc"
	"github.com/spigell/ksa-graph/internal/taxonomy"
)

// Recorder is the run-snapshot sink. It returns the snapshot directory.
type Recorder interface {
	Record(code string, report any, items []ksa.ItemDraft, normalized string) (string, error)
}

// Deps aggregates the collaborators of a pipeline. Extractor and Store are
// required; everything else degrades gracefully when absent.
type Deps struct {
	Extractor extract.Extractor
	Fallback  extract.Extractor
	Aligner   *taxonomy.Aligner
	Enhancer  enhance.Enhancer
	Store     graph.Store
	Recorder  Recorder
	Logger    *zap.Logger
}

// Request is the invocation contract for one run.
type Request struct {
	RoleCode string
	RawText  string
	Enhance  bool
	Dedupe   bool
}

// Report summarizes one completed run. Immutable once returned.
type Report struct {
	RoleCode     string            `json:"role_code"`
	RoleTitle    string            `json:"role_title"`
	Counts       map[string]int    `json:"counts"`
	ItemsCreated int               `json:"items_created"`
	ItemsUpdated int               `json:"items_updated"`
	EdgesCreated int               `json:"edges_created"`
	Warnings     []string          `json:"warnings"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
}

func (r *Report) warn(logger *zap.Logger, msg string, fields ...zap.Field) {
	r.Warnings = append(r.Warnings, msg)
	logger.Warn(msg, fields...)
}

// Pipeline runs role descriptions through the full extraction flow.
// Single-threaded: one description per Run call, calls block until the
// external collaborators answer.
type Pipeline struct {
	deps Deps
	gate consolidate.Options
}

// New builds a pipeline. Gate options apply to every run.
func New(deps Deps, gate consolidate.Options) (*Pipeline, error) {
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, gate: gate}, nil
}

// Prepared is a run taken through every stage up to the graph write.
// Persist completes it.
type Prepared struct {
	doc    *roledoc.Document
	report *Report
	items  []ksa.ItemDraft
}

// RoleCode returns the code the run will persist under.
func (p *Prepared) RoleCode() string { return p.report.RoleCode }

// ItemCount returns the number of consolidated items awaiting persistence.
func (p *Prepared) ItemCount() int { return len(p.items) }

// Run processes one role description. ParseError and graph-write failures
// abort the run; every other stage failure is recorded as a report warning
// and the run continues. Callers that confirm before writing use Prepare
// and Persist instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	prep, err := p.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.Persist(ctx, prep)
}

// Prepare runs the side-effect-free stages: normalize, extract, enhance,
// align, consolidate. The graph is not touched.
func (p *Pipeline) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	log := p.deps.Logger

	doc, err := roledoc.Parse(req.RawText)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RoleCode:  doc.Code,
		RoleTitle: doc.Title,
		Warnings:  []string{},
		Artifacts: map[string]string{},
	}

	if req.RoleCode != "" && req.RoleCode != doc.Code {
		report.warn(log, fmt.Sprintf("requested role code %s differs from extracted %s, using requested", req.RoleCode, doc.Code))
		report.RoleCode = req.RoleCode
	}

	log.Info("starting run",
		zap.String("role_code", report.RoleCode),
		zap.String("role_title", report.RoleTitle),
	)

	items := p.extractStage(ctx, doc, report)
	items = p.enhanceStage(ctx, doc, items, req.Enhance, report)
	items = p.alignStage(items, report)
	items = p.consolidateStage(items, req.Dedupe, report)

	report.Counts = countByType(items)

	return &Prepared{doc: doc, report: report, items: items}, nil
}

// Persist writes a prepared run to the graph and records the snapshot.
func (p *Pipeline) Persist(ctx context.Context, prep *Prepared) (*Report, error) {
	report := prep.report

	delta, err := p.deps.Store.PersistRun(ctx, graph.Role{Code: report.RoleCode, Title: report.RoleTitle}, prep.items)
	if err != nil {
		return nil, fmt.Errorf("graph write: %w", err)
	}
	report.ItemsCreated = delta.ItemsCreated
	report.ItemsUpdated = delta.ItemsUpdated
	report.EdgesCreated = delta.EdgesCreated

	p.deps.Logger.Info("persisted run",
		zap.String("role_code", report.RoleCode),
		zap.Int("items", len(prep.items)),
		zap.Int("items_created", delta.ItemsCreated),
		zap.Int("edges_created", delta.EdgesCreated),
	)

	p.recordStage(report, prep.items, prep.doc.Normalized)

	return report, nil
}

// extractStage runs the configured extractor, falling back to the pattern
// extractor when the primary one fails.
func (p *Pipeline) extractStage(ctx context.Context, doc *roledoc.Document, report *Report) []ksa.ItemDraft {
	items, err := p.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		report.warn(p.deps.Logger,
			fmt.Sprintf("%s extraction failed: %v", p.deps.Extractor.Name(), err))

		if p.deps.Fallback == nil {
			return nil
		}

		items, err = p.deps.Fallback.Extract(ctx, doc)
		if err != nil {
			report.warn(p.deps.Logger, fmt.Sprintf("fallback extraction failed: %v", err))
			return nil
		}
	}

	p.deps.Logger.Info("candidate extraction",
		zap.String("extractor", p.deps.Extractor.Name()),
		zap.Int("candidates", len(items)),
	)

	return items
}

func (p *Pipeline) enhanceStage(ctx context.Context, doc *roledoc.Document, items []ksa.ItemDraft, enabled bool, report *Report) []ksa.ItemDraft {
	if !enabled {
		return items
	}

	if p.deps.Enhancer == nil || !p.deps.Enhancer.Available() {
		report.warn(p.deps.Logger, "enhancement capability unavailable, continuing with extracted items only")
		return items
	}

	generated, err := p.deps.Enhancer.Enhance(ctx, doc, skillsOnly(items))
	if err != nil {
		report.warn(p.deps.Logger, fmt.Sprintf("enhancement failed, continuing with extracted items only: %v", err))
		return items
	}

	p.deps.Logger.Info("enhancement",
		zap.Int("initial", len(items)),
		zap.Int("generated", len(generated)),
	)

	return append(items, generated...)
}

func (p *Pipeline) alignStage(items []ksa.ItemDraft, _ *Report) []ksa.ItemDraft {
	if p.deps.Aligner == nil {
		return items
	}
	return p.deps.Aligner.Align(items)
}

func (p *Pipeline) consolidateStage(items []ksa.ItemDraft, dedupe bool, _ *Report) []ksa.ItemDraft {
	log := p.deps.Logger

	if dedupe {
		var step consolidate.Step
		items, step = consolidate.Dedupe(items)
		log.Info("dedupe",
			zap.Int("initial", step.Initial),
			zap.Int("dropped", step.Dropped),
			zap.Int("left", step.Left),
		)
	}

	items, step := consolidate.Gate(items, p.gate, log)
	log.Info("quality gate",
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
	)

	return items
}

// recordStage writes the snapshot. Failures become report warnings, never
// run failures.
func (p *Pipeline) recordStage(report *Report, items []ksa.ItemDraft, normalized string) {
	if p.deps.Recorder == nil {
		return
	}

	dir, err := p.deps.Recorder.Record(report.RoleCode, report, items, normalized)
	if err != nil {
		report.warn(p.deps.Logger, fmt.Sprintf("writing run snapshot failed: %v", err))
		return
	}
	report.Artifacts["snapshot_dir"] = dir
}

func skillsOnly(items []ksa.ItemDraft) []ksa.ItemDraft {
	skills := make([]ksa.ItemDraft, 0, len(items))
	for _, item := range items {
		if item.Type == ksa.TypeSkill {
			skills = append(skills, item)
		}
	}
	return skills
}

func countByType(items []ksa.ItemDraft) map[string]int {
	counts := map[string]int{
		string(ksa.TypeKnowledge): 0,
		string(ksa.TypeSkill):     0,
		string(ksa.TypeAbility):   0,
	}
	for _, item := range items {
		counts[string(item.Type)]++
	}
	return counts
}
