package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/srag/config"
	"github.com/kbukum/srag/version"
)

var rootFlags struct {
	configFile string
	envFile    string
	docs       []string
	rewrite    bool
	noCache    bool
}

var rootCmd = &cobra.Command{
	Use:   "srag",
	Short: "Retrieval-augmented answers over local documents",
	Long: "srag indexes the given documents in memory, retrieves the chunks most\n" +
		"relevant to a question and asks the configured LLM to answer from them.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configFile, "config", "c", "", "config file (default: search config.yml)")
	f.StringVar(&rootFlags.envFile, "env-file", "", ".env file (default: search .env)")
	f.StringSliceVarP(&rootFlags.docs, "doc", "d", nil, "document file or directory to index (repeatable)")
	f.BoolVar(&rootFlags.rewrite, "rewrite", false, "rewrite the question into extra search queries first")
	f.BoolVar(&rootFlags.noCache, "no-cache", false, "disable the response cache")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.Version = version.Get().String()
}

// loadConfig reads, defaults and validates the configuration, then applies
// the command-line overrides.
func loadConfig() (config.App, error) {
	var cfg config.App
	var opts []config.LoaderOption
	if rootFlags.configFile != "" {
		opts = append(opts, config.WithConfigFile(rootFlags.configFile))
	}
	if rootFlags.envFile != "" {
		opts = append(opts, config.WithEnvFile(rootFlags.envFile))
	}
	if err := config.LoadConfig("srag", &cfg, opts...); err != nil {
		return cfg, err
	}

	cfg.ApplyDefaults()
	if rootFlags.rewrite {
		cfg.Pipeline.Rewrite = true
	}
	if rootFlags.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return cfg, cfg.Validate()
}
