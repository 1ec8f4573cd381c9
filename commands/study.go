package commands

import (
	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	consolidateDir   string
	consolidateChart string

	bottleneckGroup string
	bottleneckChart string

	watersChart string

	helixTunnel string
	helixChart  string
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Count the events of every group per simulation and write CSV files",
	Long: `Sums the entry and release events over the super clusters each comparative
folder attributed to a group, next to the events TransportTools left
unassigned. Writes consolidated_results.csv, unassigned_events_sep.csv and
consolidated_unassigned.csv.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		dir := consolidateDir
		if dir == "" {
			dir = a.Config().Output.Dir
		}
		return a.Consolidate(dir, outputPath(a, consolidateChart))
	}),
}

var occupancyCmd = &cobra.Command{
	Use:   "occupancy",
	Short: "Count the frames in which each group has an open tunnel",
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Occupancy()
	}),
}

var bottleneckCmd = &cobra.Command{
	Use:   "bottleneck",
	Short: "Follow the bottleneck radius of a group through each simulation",
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Bottleneck(bottleneckGroup, outputPath(a, bottleneckChart))
	}),
}

var watersCmd = &cobra.Command{
	Use:   "waters",
	Short: "Count the water molecules AQUA-DUCT traced in every simulation",
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Waters(outputPath(a, watersChart))
	}),
}

var helixCmd = &cobra.Command{
	Use:   "helix",
	Short: "Summarise the helix-helix distance across a tunnel opening",
	Long: `Reads <tunnel>_openings.csv from simulations.openings_dir, one column of
per frame distances per simulation, and summarises the distance per
simulation, per comparative folder and per epoch.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Helix(helixTunnel, outputPath(a, helixChart))
	}),
}

func init() {
	rootCmd.AddCommand(consolidateCmd, occupancyCmd, bottleneckCmd, watersCmd, helixCmd)

	consolidateCmd.Flags().StringVar(&consolidateDir, "dir", "",
		"Directory for the CSV files (default output.dir)")
	consolidateCmd.Flags().StringVar(&consolidateChart, "chart", "",
		"Write a bar chart of the folder totals to this PNG")

	bottleneckCmd.Flags().StringVarP(&bottleneckGroup, "group", "g", "",
		"Group whose tunnel is followed")
	bottleneckCmd.MarkFlagRequired("group")
	bottleneckCmd.Flags().StringVar(&bottleneckChart, "chart", "",
		"Write a line chart of the radii to this PNG")

	watersCmd.Flags().StringVar(&watersChart, "chart", "",
		"Write a bar chart of the traced waters to this PNG")

	helixCmd.Flags().StringVarP(&helixTunnel, "tunnel", "t", "",
		"Tunnel name of the distance table, e.g. p1")
	helixCmd.MarkFlagRequired("tunnel")
	helixCmd.Flags().StringVar(&helixChart, "chart", "",
		"Write a bar chart of the folder means to this PNG")
}
