package commands

import (
	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/core/transit"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	// Event selection, shared by transit and stats
	transitMeasure      string
	transitGroup        string
	transitFrames       bool
	transitByDefinition bool

	statsBy     string
	statsSource string
)

var transitCmd = &cobra.Command{
	Use:   "transit",
	Short: "Describe how long water stays in each tunnel group",
	Long: `Collects the entry and release events of every group from the super cluster
details report and describes their durations per simulation.

By default a super cluster counts for a simulation only when the comparative
folder of that simulation attributed it to the group. --by-definition uses the
group definitions directly.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		opts, err := transitOptions()
		if err != nil {
			return nil, err
		}
		return a.Retention(opts)
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compare groups with Kruskal-Wallis and Dunn tests",
	Long: `Runs a Kruskal-Wallis test over the values of every group and a Dunn
post-hoc test with Bonferroni adjustment for each pair of samples.

--source durations compares event durations, occurrence the fraction of each
simulation's frames covered by events (needs simulations.frames_per_simulation)
and radii the bottleneck radii of the group's tunnel.

--by folder compares every comparative folder at once, --by model the water
models within each epoch and --by epoch the epochs with the models pooled.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		opts, err := transitOptions()
		if err != nil {
			return nil, err
		}
		return a.Stats(analyzer.StatsOptions{TransitOptions: opts, By: statsBy, Source: statsSource})
	}),
}

func transitOptions() (analyzer.TransitOptions, error) {
	m, err := transit.ParseMeasure(transitMeasure)
	if err != nil {
		return analyzer.TransitOptions{}, err
	}
	return analyzer.TransitOptions{
		Measure:      m,
		Group:        transitGroup,
		Frames:       transitFrames,
		ByDefinition: transitByDefinition,
	}, nil
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&transitMeasure, "measure", "m", string(transit.MeasureCombined),
		"Events to measure (entry, release, combined)")
	cmd.Flags().StringVarP(&transitGroup, "group", "g", "",
		"Restrict to one group (default every group)")
	cmd.Flags().BoolVar(&transitByDefinition, "by-definition", false,
		"Select super clusters by group definition instead of folder attribution")
}

func init() {
	rootCmd.AddCommand(transitCmd, statsCmd)

	addSelectionFlags(transitCmd)
	transitCmd.Flags().BoolVar(&transitFrames, "frames", false,
		"Expand events into frames and report occupancy")

	addSelectionFlags(statsCmd)
	statsCmd.Flags().StringVar(&statsBy, "by", analyzer.ByFolder,
		"Comparison axis (folder, model, epoch)")
	statsCmd.Flags().StringVar(&statsSource, "source", analyzer.SourceDurations,
		"Values to compare (durations, occurrence, radii)")
}
