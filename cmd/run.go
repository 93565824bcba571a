package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ksa-graph/internal/consolidate"
	"github.com/spigell/ksa-graph/internal/enhance"
	"github.com/spigell/ksa-graph/internal/enhance/gemini"
	"github.com/spigell/ksa-graph/internal/extract"
	"github.com/spigell/ksa-graph/internal/graph"
	"github.com/spigell/ksa-graph/internal/logger"
	"github.com/spigell/ksa-graph/internal/pipeline"
	"github.com/spigell/ksa-graph/internal/secrets"
	"github.com/spigell/ksa-graph/internal/snapshot"
	"github.com/spigell/ksa-graph/internal/taxonomy"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	graphDriverMemory = "memory"
	extractModeRemote = "remote"
)

var prompt = promptui.Select{
	Label: "Persist extracted items to the graph?",
	Items: []string{PromptYes, PromptNo},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction pipeline for one role description",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("code", "c", "", "role code to persist under (default is the code extracted from the header)")
	runCmd.Flags().StringP("file", "f", "", "path to the role description text file")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before writing to the graph")
	runCmd.Flags().Bool("no-enhance", false, "skip the generative enhancement stage")
	runCmd.Flags().Bool("no-dedupe", false, "skip in-batch deduplication")
	runCmd.Flags().Bool("dry-run", false, "use the in-memory graph store instead of neo4j")

	runCmd.MarkFlagRequired("file")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ksa-graph", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	rawPath := cmd.Flag("file").Value.String()
	raw, err := os.ReadFile(rawPath)
	if err != nil {
		logger.Fatal("reading role description", zap.String("file", rawPath), zap.Error(err))
	}

	store := prepareStore(ctx, config.Graph, flagSet(cmd, "dry-run"), logger)
	defer store.Close(ctx)

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensuring graph schema", zap.Error(err))
	}

	deps := pipeline.Deps{
		Extractor: prepareExtractor(config.Extract, logger),
		Fallback:  extract.NewHeuristic(),
		Aligner:   prepareAligner(config.Taxonomy, logger),
		Enhancer:  prepareEnhancer(ctx, config.Enhance, logger),
		Store:     store,
		Recorder:  prepareRecorder(config.SnapshotDir, logger),
		Logger:    logger,
	}

	p, err := pipeline.New(deps, gateOptions(config.Consolidate))
	if err != nil {
		logger.Fatal("building pipeline", zap.Error(err))
	}

	prep, err := p.Prepare(ctx, pipeline.Request{
		RoleCode: cmd.Flag("code").Value.String(),
		RawText:  string(raw),
		Enhance:  enhanceRequested(cmd, config.Enhance),
		Dedupe:   !flagSet(cmd, "no-dedupe"),
	})
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logger.Info("consolidated items ready to persist",
		zap.String("role_code", prep.RoleCode()),
		zap.Int("count", prep.ItemCount()),
	)

	if !flagSet(cmd, "yes") {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	report, err := p.Persist(ctx, prep)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	summary, _ := json.MarshalIndent(report, "", "  ")
	logger.Info(fmt.Sprintf("run completed: \n%s", summary),
		zap.String("role_code", report.RoleCode),
		zap.Int("warnings", len(report.Warnings)),
	)
}

func prepareStore(ctx context.Context, cfg *GraphConfig, dryRun bool, logger *zap.Logger) graph.Store {
	if dryRun || cfg == nil || cfg.Driver == graphDriverMemory {
		logger.Info("using in-memory graph store", zap.Bool("dry_run", dryRun))
		return graph.NewMemory()
	}

	if cfg.Neo4j == nil {
		logger.Fatal("neo4j configuration is required under graph.neo4j")
	}

	password, err := secrets.Load("neo4j password", cfg.Neo4j.PasswordFile, "")
	if err != nil {
		logger.Fatal(
			"loading neo4j password",
			zap.Error(err),
			zap.String("hint", "set NEO4J_PASSWORD_FILE environment variable or the graph.neo4j.password-file key in the configuration file"),
		)
	}

	store, err := graph.NewNeo4j(ctx, graph.Neo4jConfig{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: password,
		Database: cfg.Neo4j.Database,
	}, logger)
	if err != nil {
		logger.Fatal("connecting to neo4j", zap.String("uri", cfg.Neo4j.URI), zap.Error(err))
	}

	return store
}

func prepareExtractor(cfg *ExtractConfig, logger *zap.Logger) extract.Extractor {
	if cfg == nil || !strings.EqualFold(cfg.Mode, extractModeRemote) {
		return extract.NewHeuristic()
	}

	if cfg.Remote == nil || cfg.Remote.URL == "" {
		logger.Fatal("remote extractor url is required under extract.remote.url")
	}

	token, err := secrets.Load("skill service token", cfg.Remote.TokenFile, "")
	if err != nil {
		// The service may be open inside the perimeter.
		logger.Warn("skill service token not configured, sending unauthenticated requests", zap.Error(err))
		token = ""
	}

	return extract.NewRemote(cfg.Remote.URL, token, logger)
}

func prepareAligner(cfg *TaxonomyConfig, logger *zap.Logger) *taxonomy.Aligner {
	thresholds := taxonomy.DefaultThresholds()
	path := ""
	maxAlt := 0

	if cfg != nil {
		path = cfg.CatalogFile
		maxAlt = cfg.MaxAltLabels
		if cfg.SkillThreshold > 0 {
			thresholds.Skill = cfg.SkillThreshold
		}
		if cfg.KnowledgeThreshold > 0 {
			thresholds.Knowledge = cfg.KnowledgeThreshold
		}
		if cfg.AbilityThreshold > 0 {
			thresholds.Ability = cfg.AbilityThreshold
		}
	}

	catalog, err := taxonomy.LoadCatalog(path, maxAlt, logger)
	if err != nil {
		logger.Fatal("loading taxonomy catalog", zap.String("path", path), zap.Error(err))
	}

	return taxonomy.NewAligner(catalog, thresholds, logger)
}

func prepareEnhancer(ctx context.Context, cfg *EnhanceConfig, logger *zap.Logger) enhance.Enhancer {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	if cfg.Gemini == nil {
		logger.Warn("skipping enhancement", zap.String("reason", "gemini configuration is required when enhancement is enabled"))
		return nil
	}

	apiKey, err := secrets.Load("gemini api key", cfg.Gemini.APIKeyFile, "")
	if err != nil {
		logger.Warn("skipping enhancement",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the enhance.gemini.api-key-file key in the configuration file"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Temperature)
	if err != nil {
		logger.Warn("skipping enhancement", zap.Error(err))
		return nil
	}

	enhLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewEnhancer(generator, cfg.MaxItems, enhLogger)
}

func prepareRecorder(root string, logger *zap.Logger) pipeline.Recorder {
	if strings.TrimSpace(root) == "" {
		root = "runs"
	}
	return snapshot.NewRecorder(root, logger)
}

func gateOptions(cfg *ConsolidateConfig) consolidate.Options {
	opts := consolidate.DefaultOptions()
	if cfg == nil {
		return opts
	}

	if cfg.MinConfidence > 0 {
		opts.MinConfidence = cfg.MinConfidence
	}
	if cfg.Tolerance > 0 {
		opts.Tolerance = cfg.Tolerance
	}
	opts.StrictSkills = cfg.StrictSkills

	return opts
}

// enhanceRequested reports whether the enhancement stage should run at all:
// it must be enabled in the configuration and not suppressed with
// --no-enhance. A deliberate disable produces no availability warning.
func enhanceRequested(cmd *cobra.Command, cfg *EnhanceConfig) bool {
	return cfg != nil && cfg.Enabled && !flagSet(cmd, "no-enhance")
}

func flagSet(cmd *cobra.Command, name string) bool {
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}
