package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/aravindramcb/water-models/internal/analyzer"
	"github.com/aravindramcb/water-models/internal/external/cpptraj"
	"github.com/aravindramcb/water-models/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	teventsOut string

	snapshotsDB          string
	snapshotsOut         string
	snapshotsHBonds      bool
	snapshotsProteinSize int

	hbondsDB  string
	hbondsOut string
)

var teventsCmd = &cobra.Command{
	Use:   "tevents",
	Short: "Build the transport event database from the exact matching analysis",
	Long: `Reads the exact matching analysis of every simulation, keeps for each event
the snapshot with the narrowest bottleneck that passes the distance and fraction
thresholds, and saves the matched events as JSON.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.EventDatabase(databasePath(a, teventsOut))
	}),
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Extract event snapshots with cpptraj and analyse them",
	Long: `Extracts the PDB snapshot of every event in the transport event database with
cpptraj. --hbonds runs the hydrogen bond analysis on each snapshot and
--protein-size the native contact analysis. Existing outputs are kept.`,
	RunE: runSnapshots,
}

var hbondsCmd = &cobra.Command{
	Use:   "hbonds",
	Short: "Summarise bottleneck radii by hydrogen bond count",
	Long: `Reads the hydrogen bond outputs written by snapshots --hbonds and groups the
bottleneck radius of every event that passes analysis.fraction_threshold by
the hydrogen bond count of its snapshot.`,
	RunE: runAnalysis(func(_ *cobra.Command, a *analyzer.Analyzer) ([]formatter.Table, error) {
		return a.HBondRadii(databasePath(a, hbondsDB), snapshotsDir(a, hbondsOut))
	}),
}

func init() {
	rootCmd.AddCommand(teventsCmd, snapshotsCmd, hbondsCmd)

	teventsCmd.Flags().StringVar(&teventsOut, "out", "",
		"Database file (default output.dir/"+analyzer.DatabaseFile+")")

	snapshotsCmd.Flags().StringVar(&snapshotsDB, "db", "",
		"Database file (default output.dir/"+analyzer.DatabaseFile+")")
	snapshotsCmd.Flags().StringVar(&snapshotsOut, "out", "",
		"Directory for snapshots and analyses (default output.dir/snapshots)")
	snapshotsCmd.Flags().BoolVar(&snapshotsHBonds, "hbonds", false,
		"Run the hydrogen bond analysis")
	snapshotsCmd.Flags().IntVar(&snapshotsProteinSize, "protein-size", 0,
		"Residue count of the protein; enables the native contact analysis")

	hbondsCmd.Flags().StringVar(&hbondsDB, "db", "",
		"Database file (default output.dir/"+analyzer.DatabaseFile+")")
	hbondsCmd.Flags().StringVar(&hbondsOut, "out", "",
		"Directory snapshots wrote to (default output.dir/snapshots)")
}

func snapshotsDir(a *analyzer.Analyzer, path string) string {
	if path == "" {
		path = "snapshots"
	}
	return outputPath(a, path)
}

func databasePath(a *analyzer.Analyzer, path string) string {
	if path == "" {
		return filepath.Join(a.Config().Output.Dir, analyzer.DatabaseFile)
	}
	return outputPath(a, path)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

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

	runner := cpptraj.ExecRunner{Binary: a.Config().Cpptraj.Binary}
	tables, err := a.Snapshots(ctx, runner, analyzer.SnapshotOptions{
		Database:    databasePath(a, snapshotsDB),
		OutDir:      snapshotsDir(a, snapshotsOut),
		HBonds:      snapshotsHBonds,
		ProteinSize: snapshotsProteinSize,
	})
	if err != nil {
		return err
	}
	return render(cmd, a, tables)
}
