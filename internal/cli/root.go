package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
)

// Version is set at build time with -ldflags "-X github.com/ppiankov/skilldiff/internal/cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "skilldiff",
	Short: "SkillDiff - check resume claims against the public web",
	Long: `SkillDiff extracts verifiable claims from a resume, searches the web for
evidence, and labels each claim Verified, Unsure or Bullshit.

Run it locally on a file with 'skilldiff verify', or start the upload
endpoint with 'skilldiff serve'.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := viper.GetString("log.level")
		if verbose {
			level = "debug"
		}
		logging.SetDefault(logging.New(level, os.Stderr))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skilldiff %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.skilldiff/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	registerDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".skilldiff"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SKILLDIFF_SEARCH_MAX_RESULTS overrides search.max_results
	viper.SetEnvPrefix("SKILLDIFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("search.api_key", "SKILLDIFF_SEARCH_API_KEY", "TAVILY_API_KEY")
	_ = viper.BindEnv("llm.api_key", "SKILLDIFF_LLM_API_KEY")
	_ = viper.BindEnv("notify.api_key", "SKILLDIFF_NOTIFY_API_KEY", "RESEND_API_KEY")
	_ = viper.BindEnv("ledger.database_url", "SKILLDIFF_LEDGER_DATABASE_URL", "DATABASE_URL")
	_ = viper.BindEnv("budget.redis_url", "SKILLDIFF_BUDGET_REDIS_URL", "REDIS_URL")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so env overrides apply on Unmarshal
func registerDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults("", tree)
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig builds the effective configuration: flags > env > file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderKeys(cfg)
	return cfg, nil
}

// applyProviderKeys fills the LLM key from the provider's conventional env var
func applyProviderKeys(cfg *model.Config) {
	provider := strings.ToLower(cfg.LLM.Provider)

	if cfg.LLM.APIKey == "" {
		switch provider {
		case "openrouter":
			cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if provider == "ollama" && cfg.LLM.BaseURL == "" {
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = strings.TrimRight(base, "/") + "/v1"
		}
	}
	if cfg.LLM.HTTPProxy == "" {
		cfg.LLM.HTTPProxy = os.Getenv("HTTP_PROXY")
	}
	if cfg.LLM.HTTPSProxy == "" {
		cfg.LLM.HTTPSProxy = os.Getenv("HTTPS_PROXY")
	}
}
