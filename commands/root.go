package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/config"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Manifest
	configFile string

	// Logging related
	debug bool

	// Output related
	outputFormat string
	outputFile   string

	// Cache
	reset bool

	rootCmd = &cobra.Command{
		Use:   "water-models [command]",
		Short: "Water model comparison over TransportTools results",
		Long: `water-models compares how water molecules use protein tunnels across MD
simulations run with different water models and ligand epochs.

It reads the reports of one TransportTools run, attributes super clusters to the
tunnel groups defined in the manifest, and prints tables (table, csv or json).

Examples:
  water-models groups                                   # Super clusters of every group per folder
  water-models transit --group P1 --frames              # Retention times and occupancy of P1
  water-models stats --by model --measure entry         # Compare water models per epoch
  water-models consolidate --chart events.png           # Write the consolidation CSV files
  water-models --config study.yaml -o json waters       # Traced waters as JSON`,
		SilenceUsage: true,
	}
)

const defaultConfigHint = "water-models.{yaml,toml,json} in the working directory"

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Manifest file (default "+defaultConfigHint+")")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"Output format (table, json, csv), overrides output.format")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "",
		"Write tables to this file instead of stdout")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&reset, "reset", "r", false,
		"Clear the report cache before analysis")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the manifest and applies the command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("output") {
		cfg.Output.Format = outputFormat
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	if cfg.Logging.File != "" {
		if err := util.EnsureDir(filepath.Dir(cfg.Logging.File)); err != nil {
			return err
		}
	}
	return util.InitLogger(util.LoggerOptions{
		Level:     cfg.Logging.Level,
		Format:    util.LogFormat(cfg.Logging.Format),
		File:      cfg.Logging.File,
		ToConsole: debug,
	})
}

// setup builds the analyzer every subcommand runs on
func setup(cmd *cobra.Command) (*analyzer.Analyzer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	util.LogDebugf("Running %s with results in %s", cmd.Name(), cfg.TransportTools.ResultsDir)

	a, err := analyzer.New(cfg)
	if err != nil {
		return nil, err
	}

	// Clear cache if needed
	if reset {
		if err := a.ClearCache(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// render writes tables in the configured format to --output-file or the
// command's output.
func render(cmd *cobra.Command, a *analyzer.Analyzer, tables []formatter.Table) error {
	f, err := formatter.New(a.Config().Output.Format)
	if err != nil {
		return err
	}
	if outputFile == "" {
		return f.Format(cmd.OutOrStdout(), tables...)
	}
	return writeOutputFile(util.ExpandPath(outputFile), f, tables)
}

func writeOutputFile(path string, f formatter.Formatter, tables []formatter.Table) (err error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer closeOutput(file, &err)
	return f.Format(file, tables...)
}

// closeOutput closes c and keeps its error unless *err is already set.
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close output file: %w", cerr)
	}
}

// analysis is the body of a subcommand that only prints tables
type analysis func(cmd *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error)

func runAnalysis(fn analysis) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		tables, err := fn(cmd, a)
		if err != nil {
			return err
		}
		return render(cmd, a, tables)
	}
}

// outputPath resolves a relative path against output.dir
func outputPath(a *analyzer.Analyzer, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.Config().Output.Dir, path)
}
