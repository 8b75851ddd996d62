package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/adreview/internal/criteria"
	"github.com/joescharf/adreview/internal/logging"
	"github.com/joescharf/adreview/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui     *output.UI
	logger *slog.Logger

	verbose bool
	dryRun  bool
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "adreview",
	Short: "Review a queue of video clips and export the verdicts as CSV",
	Long: `adreview serves a local review page for working through a queue of
video clips. For each clip the reviewer records accept or reject plus a
rating and note per criterion; review time is tracked and results can be
exported as a spreadsheet-compatible CSV file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/adreview/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ADREVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key's default value.
func setDefaults() {
	dir, _ := configDirFunc()

	viper.SetDefault("state_dir", dir)
	viper.SetDefault("port", 8080)
	viper.SetDefault("manifest", "")
	viper.SetDefault("upload_dir", filepath.Join(os.TempDir(), "adreview-uploads"))
	viper.SetDefault("review.criteria", criteria.DefaultLabels)
	viper.SetDefault("review.ratings", criteria.DefaultRatings)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	level := viper.GetString("log.level")
	if verbose && level == "info" {
		level = "debug"
	}
	l, err := logging.New(logging.Options{
		Level:  level,
		Format: viper.GetString("log.format"),
		Output: ui.ErrOut,
	})
	if err != nil {
		ui.Warning("Invalid logging config (%v); using defaults", err)
		l, _ = logging.New(logging.Options{Output: ui.ErrOut})
	}
	logger = l
	slog.SetDefault(logger)
}
