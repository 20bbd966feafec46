package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vpenkov/perfidia/internal/model"
)

var (
	cfgFile string
	dataDir string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "perfidia",
	Short: "Perfidia - ransomware group credibility scoring from observable behavior",
	Long: `Perfidia scores how consistently ransomware groups follow through on
their own claims and promises, using leak-site claims, negotiation
transcripts, and payment records.

It does not advise paying. A group that reliably returns data is still
a criminal enterprise; the index only measures whether the group's
stated behavior holds up against the record.

The usual flow:

  perfidia collect     pull upstream records into the local archive
  perfidia export      write the archive out as JSONL
  perfidia features    extract per-chat credibility features
  perfidia score       aggregate and score per group
  perfidia verify      check whether leak posts are still served`,
	SilenceErrors: true,
	SilenceUsage:  true,
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
		fmt.Println("perfidia v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.perfidia.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default: ./data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for .perfidia.yaml in home directory
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".perfidia")
	}

	// Read in environment variables that match PERFIDIA_*
	viper.SetEnvPrefix("PERFIDIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration: defaults first, then
// config file and PERFIDIA_* environment values, then the global flags.
// Command flags apply their own overrides after this.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	setString(&cfg.DataDir, "data_dir")
	setDuration(&cfg.HTTP.Timeout, "http.timeout")
	setString(&cfg.HTTP.UserAgent, "http.user_agent")
	setString(&cfg.HTTP.HTTPProxy, "http.http_proxy")
	setString(&cfg.HTTP.HTTPSProxy, "http.https_proxy")
	setString(&cfg.Collect.RansomwareLiveURL, "collect.ransomware_live_url")
	setString(&cfg.Collect.RansomwhereURL, "collect.ransomwhere_url")
	setString(&cfg.Collect.APIKey, "collect.api_key")
	setFloat(&cfg.Collect.RequestsPerSecond, "collect.requests_per_second")
	setInt(&cfg.Collect.Burst, "collect.burst")
	setInt(&cfg.Collect.GroupLimit, "collect.group_limit")
	setInt(&cfg.Collect.Workers, "collect.workers")
	setString(&cfg.Embedding.Provider, "embedding.provider")
	setString(&cfg.Embedding.Model, "embedding.model")
	setString(&cfg.Embedding.APIKey, "embedding.api_key")
	setString(&cfg.Embedding.BaseURL, "embedding.base_url")
	setInt(&cfg.Embedding.Timeout, "embedding.timeout")
	setBool(&cfg.Embedding.CacheEnabled, "embedding.cache_enabled")
	setString(&cfg.Embedding.CacheDir, "embedding.cache_dir")
	setFloat(&cfg.Classifier.Threshold, "classifier.threshold")
	setString(&cfg.Classifier.TaxonomyPath, "classifier.taxonomy_path")
	setInt(&cfg.Verify.Workers, "verify.workers")
	setDuration(&cfg.Verify.Timeout, "verify.timeout")
	setBool(&cfg.Output.Verbose, "output.verbose")

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg
}

func setString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func setInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func setBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

func setFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

func setDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

// databasePath locates the archive database under the data directory
func databasePath(cfg *model.Config) string {
	return filepath.Join(cfg.DataDir, "perfidia.db")
}
