package commands

import (
	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	eventsTunnels bool
	residuesGroup     string
	residuesTop       int
	residuesFolderTop int
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show the super clusters attributed to every group",
	Long: `Reads the event statistics of every comparative folder and attributes the
observed super clusters to the groups of the manifest. Super clusters no group
defines are listed under "others".`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Groups()
	}),
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the event statistics of every comparative folder",
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Events(eventsTunnels)
	}),
}

var unassignedCmd = &cobra.Command{
	Use:   "unassigned",
	Short: "Count the transport events no super cluster received",
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Unassigned()
	}),
}

var residuesCmd = &cobra.Command{
	Use:   "residues",
	Short: "Rank the bottleneck residues of a group",
	Long: `Averages the frequency of every bottleneck residue over the group's super
clusters and ranks the residues, over all comparative folders and per folder.
Residues below analysis.frequency_cutoff are ignored.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.Residues(residuesGroup, residuesTop, residuesFolderTop)
	}),
}

func init() {
	rootCmd.AddCommand(groupsCmd, eventsCmd, unassignedCmd, residuesCmd)

	eventsCmd.Flags().BoolVar(&eventsTunnels, "tunnels", false,
		"Print the tunnel statistics before event assignment")

	residuesCmd.Flags().StringVarP(&residuesGroup, "group", "g", "",
		"Group whose super clusters are read")
	residuesCmd.Flags().IntVar(&residuesTop, "top", 10,
		"Residues in the overall ranking (0 for all)")
	residuesCmd.Flags().IntVar(&residuesFolderTop, "folder-top", 5,
		"Residues per folder (0 for all)")
	residuesCmd.MarkFlagRequired("group")
}
