package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/core/watch"
	"github.com/aravindramcb/water-models/internal/data/details"
	"github.com/aravindramcb/water-models/internal/data/parser"
	"github.com/aravindramcb/water-models/internal/data/residues"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/aravindramcb/water-models/internal/util"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

// watchPatterns are the report names whose changes trigger a re-run
var watchPatterns = []string{
	parser.EventStatisticsFile,
	parser.TunnelStatisticsFile,
	residues.File,
	details.TransitFile,
	details.OutlierFile,
	details.InitialFile,
	"super_cluster_*.csv",
}

// watchAnalyses are the analyses watch can repeat. Flags of the selection
// commands apply.
var watchAnalyses = map[string]analysis{
	"groups": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Groups()
	},
	"events": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Events(false)
	},
	"unassigned": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Unassigned()
	},
	"occupancy": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Occupancy()
	},
	"transit": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		opts, err := transitOptions()
		if err != nil {
			return nil, err
		}
		return a.Retention(opts)
	},
	"stats": func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		opts, err := transitOptions()
		if err != nil {
			return nil, err
		}
		return a.Stats(analyzer.StatsOptions{TransitOptions: opts, By: statsBy, Source: statsSource})
	},
}

func watchNames() []string {
	names := make([]string, 0, len(watchAnalyses))
	for name := range watchAnalyses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var watchCmd = &cobra.Command{
	Use:   "watch <analysis>",
	Short: "Re-run an analysis whenever the TransportTools reports change",
	Long: `Runs the analysis once, then watches the TransportTools results directory and
runs it again after the reports have been quiet for the debounce interval.

Analyses: ` + strings.Join(watchNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: watchNames(),
	RunE:      runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second,
		"Quiet period before re-running")
	addSelectionFlags(watchCmd)
	watchCmd.Flags().BoolVar(&transitFrames, "frames", false,
		"Expand events into frames and report occupancy (transit)")
	watchCmd.Flags().StringVar(&statsBy, "by", analyzer.ByFolder,
		"Comparison axis of stats (folder, model, epoch)")
	watchCmd.Flags().StringVar(&statsSource, "source", analyzer.SourceDurations,
		"Values compared by stats (durations, occurrence, radii)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	fn, ok := watchAnalyses[args[0]]
	if !ok {
		return fmt.Errorf("unknown analysis %q (want one of %s)", args[0], strings.Join(watchNames(), ", "))
	}
	if watchDebounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}

	root := a.Config().TransportTools.ResultsDir
	fw, err := watch.NewFileWatcher([]string{root}, watchPatterns)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	defer fw.Close()
	util.LogInfo("Watching reports", util.F("dir", root), util.F("analysis", args[0]))

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err = watch.Run(ctx, fw, watchDebounce, func(_ context.Context, changed []string) error {
		if len(changed) > 0 {
			a.Refresh()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d report(s) changed\n", time.Now().Format(time.TimeOnly), len(changed))
		}
		tables, err := fn(cmd, a)
		if err != nil {
			return err
		}
		return render(cmd, a, tables)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
