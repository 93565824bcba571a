package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "ksa-graph"
)

type Config struct {
	SnapshotDir string             `mapstructure:"snapshot-dir"`
	Taxonomy    *TaxonomyConfig    `mapstructure:"taxonomy"`
	Consolidate *ConsolidateConfig `mapstructure:"consolidate"`
	Extract     *ExtractConfig     `mapstructure:"extract"`
	Enhance     *EnhanceConfig     `mapstructure:"enhance"`
	Graph       *GraphConfig       `mapstructure:"graph"`
}

type TaxonomyConfig struct {
	CatalogFile        string  `mapstructure:"catalog-file"`
	MaxAltLabels       int     `mapstructure:"max-alt-labels"`
	SkillThreshold     float64 `mapstructure:"skill-threshold"`
	KnowledgeThreshold float64 `mapstructure:"knowledge-threshold"`
	AbilityThreshold   float64 `mapstructure:"ability-threshold"`
}

type ConsolidateConfig struct {
	MinConfidence float64 `mapstructure:"min-confidence"`
	Tolerance     float64 `mapstructure:"tolerance"`
	StrictSkills  bool    `mapstructure:"strict-skills"`
}

type ExtractConfig struct {
	Mode   string               `mapstructure:"mode"`
	Remote *RemoteExtractConfig `mapstructure:"remote"`
}

type RemoteExtractConfig struct {
	URL       string `mapstructure:"url"`
	TokenFile string `mapstructure:"token-file"`
}

type EnhanceConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxItems    int           `mapstructure:"max-items"`
	Temperature float64       `mapstructure:"temperature"`
	Gemini      *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type GraphConfig struct {
	Driver string       `mapstructure:"driver"`
	Neo4j  *Neo4jConfig `mapstructure:"neo4j"`
}

type Neo4jConfig struct {
	URI          string `mapstructure:"uri"`
	Username     string `mapstructure:"username"`
	PasswordFile string `mapstructure:"password-file"`
	Database     string `mapstructure:"database"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ksa-graph extracts KSA statements from role descriptions and persists them into a skills graph",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for env, key := range map[string]string{
		"GEMINI_API_KEY_FILE":      "enhance.gemini.api-key-file",
		"NEO4J_PASSWORD_FILE":      "graph.neo4j.password-file",
		"KSA_EXTRACTOR_TOKEN_FILE": "extract.remote.token-file",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ksa-graph.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}
