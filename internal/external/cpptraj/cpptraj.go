// Package cpptraj drives the AmberTools trajectory processor: it extracts the
// snapshots selected in the transport event database as PDB files and runs the
// hydrogen bond and native contact analyses on them.
package cpptraj

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aravindramcb/water-models/internal/data/tevents"
	"github.com/aravindramcb/water-models/internal/util"
	"github.com/google/uuid"
)

const (
	ExtractLog  = "extract_frames.log"
	HBondsLog   = "hbonds.log"
	ContactsLog = "ncontacts.log"

	// HBondDistance is the donor-acceptor cutoff in angstrom.
	HBondDistance = 3.5
)

// Runner executes cpptraj with args in dir, writing its standard output to out.
type Runner interface {
	Run(ctx context.Context, dir string, args []string, out io.Writer) error
}

// ExecRunner runs a cpptraj binary.
type ExecRunner struct {
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, dir string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %w: %s", r.Binary, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", r.Binary, strings.Join(args, " "), err)
	}
	return nil
}

// Options locate the trajectories and control batching.
type Options struct {
	// Topology and Trajectory are file names inside each simulation directory.
	Topology   string
	Trajectory string
	// BatchSize is the number of frames extracted per cpptraj run.
	BatchSize int
	// WorkDir receives the temporary input files. Defaults to the output directory.
	WorkDir string
}

// Client runs cpptraj jobs.
type Client struct {
	runner Runner
	opts   Options
}

func NewClient(runner Runner, opts Options) *Client {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1000
	}
	return &Client{runner: runner, opts: opts}
}

// SnapshotFrame converts an exact matching frame, which counts from 0, into the
// trajectory frame cpptraj expects.
func SnapshotFrame(frame int) int {
	return frame + 1
}

// SnapshotPath is the PDB file of a trajectory frame.
func SnapshotPath(dir, md string, frame int) string {
	return filepath.Join(dir, md, fmt.Sprintf("f%05d.pdb", frame))
}

func eventBase(dir, md string, ev tevents.Event) string {
	return filepath.Join(dir, md, fmt.Sprintf("f%05d_e%04d", SnapshotFrame(ev.Frame), ev.ID))
}

// HBondPaths are the hydrogen bond and solvent outputs of one event.
func HBondPaths(dir, md string, ev tevents.Event) (string, string) {
	base := eventBase(dir, md, ev)
	return base + ".txt", base + "_solv.txt"
}

// ExtractScript builds the cpptraj input that writes each frame to its own
// PDB file. Frames whose file already exists are left out; ok is false when
// nothing is left to extract.
func ExtractScript(simDir, topology, trajectory, outDir, md string, frames []int) (script string, ok bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "parm %s\n", filepath.Join(simDir, topology))
	fmt.Fprintf(&b, "trajin %s\n", filepath.Join(simDir, trajectory))
	for _, f := range frames {
		out := SnapshotPath(outDir, md, f)
		if fileExists(out) {
			continue
		}
		fmt.Fprintf(&b, "trajout %s onlyframes %d\n", out, f)
		ok = true
	}
	b.WriteString("go\nquit\n")
	return b.String(), ok
}

// HBondScript builds the hbond analysis of the water of one event.
func HBondScript(outDir, md string, ev tevents.Event) string {
	out, solv := HBondPaths(outDir, md, ev)
	mask := ev.WaterID + 1
	return fmt.Sprintf("hbond event_H out %s solventdonor :%d solventacceptor :%d@O dist %.1f solvout %s\ngo\n",
		out, mask, mask, HBondDistance, solv)
}

// ContactsScript builds the native contact analysis between the water of one
// event and the protein residues 1..proteinSize.
func ContactsScript(outDir, md string, ev tevents.Event, proteinSize int) string {
	return fmt.Sprintf("nativecontacts :%d :1-%d writecontacts %s.txt includesolvent\ngo\nquit\n",
		ev.WaterID+1, proteinSize, eventBase(outDir, md, ev))
}

// Frames returns the distinct trajectory frames of events, ascending.
func Frames(events []tevents.Event) []int {
	seen := make(map[int]bool, len(events))
	var frames []int
	for _, ev := range events {
		f := SnapshotFrame(ev.Frame)
		if !seen[f] {
			seen[f] = true
			frames = append(frames, f)
		}
	}
	sort.Ints(frames)
	return frames
}

// ExtractFrames writes a PDB snapshot for every event of md into outDir/md.
// It returns the number of cpptraj runs.
func (c *Client) ExtractFrames(ctx context.Context, md string, events []tevents.Event, trajRoot, outDir string) (int, error) {
	if err := util.EnsureDir(filepath.Join(outDir, md)); err != nil {
		return 0, err
	}

	frames := Frames(events)
	simDir := filepath.Join(trajRoot, md)
	runs := 0
	for start := 0; start < len(frames); start += c.opts.BatchSize {
		end := start + c.opts.BatchSize
		if end > len(frames) {
			end = len(frames)
		}

		script, ok := ExtractScript(simDir, c.opts.Topology, c.opts.Trajectory, outDir, md, frames[start:end])
		if !ok {
			util.LogDebugf("Frames %d-%d of %s already extracted", frames[start], frames[end-1], md)
			continue
		}
		if err := c.run(ctx, "extract_frames_"+md, script, outDir, ExtractLog, nil); err != nil {
			return runs, fmt.Errorf("failed to extract frames of %s: %w", md, err)
		}
		runs++
	}

	util.LogInfo("Extracted frames", util.F("md", md), util.F("frames", len(frames)), util.F("runs", runs))
	return runs, nil
}

// HBonds runs the hydrogen bond analysis of every event of md on the snapshots
// in framesDir. Events whose outputs exist are skipped.
func (c *Client) HBonds(ctx context.Context, md string, events []tevents.Event, framesDir, outDir string) (int, error) {
	if err := util.EnsureDir(filepath.Join(outDir, md)); err != nil {
		return 0, err
	}

	log := util.LogWith(util.F("md", md), util.F("analysis", "hbonds"))
	runs := 0
	for _, ev := range events {
		out, solv := HBondPaths(outDir, md, ev)
		if fileExists(out) && fileExists(solv) {
			log.Debugf("Event %d already analysed", ev.ID)
			continue
		}
		pdb := SnapshotPath(framesDir, md, SnapshotFrame(ev.Frame))
		if err := c.run(ctx, "hbonds", HBondScript(outDir, md, ev), outDir, HBondsLog, []string{"-p", pdb, "-y", pdb}); err != nil {
			return runs, fmt.Errorf("hbond analysis of event %d in %s: %w", ev.ID, md, err)
		}
		runs++
	}

	log.Info("Finished hydrogen bonds", util.F("runs", runs))
	return runs, nil
}

// NativeContacts runs the native contact analysis of every event of md.
func (c *Client) NativeContacts(ctx context.Context, md string, events []tevents.Event, framesDir, outDir string, proteinSize int) (int, error) {
	if proteinSize < 1 {
		return 0, fmt.Errorf("protein size must be positive, got %d", proteinSize)
	}
	if err := util.EnsureDir(filepath.Join(outDir, md)); err != nil {
		return 0, err
	}

	runs := 0
	for _, ev := range events {
		if fileExists(eventBase(outDir, md, ev) + ".txt") {
			continue
		}
		pdb := SnapshotPath(framesDir, md, SnapshotFrame(ev.Frame))
		script := ContactsScript(outDir, md, ev, proteinSize)
		if err := c.run(ctx, "contacts", script, outDir, ContactsLog, []string{"-p", pdb, "-y", pdb}); err != nil {
			return runs, fmt.Errorf("native contacts of event %d in %s: %w", ev.ID, md, err)
		}
		runs++
	}

	util.LogInfo("Finished native contacts", util.F("md", md), util.F("runs", runs))
	return runs, nil
}

// run writes script to a uniquely named input file, runs cpptraj on it with
// its output appended to logName in outDir and removes the input afterwards.
func (c *Client) run(ctx context.Context, prefix, script, outDir, logName string, args []string) error {
	workDir := c.opts.WorkDir
	if workDir == "" {
		workDir = outDir
	}
	if err := util.EnsureDir(workDir); err != nil {
		return err
	}

	input := filepath.Join(workDir, fmt.Sprintf("%s_%s.cppin", prefix, uuid.NewString()))
	if err := os.WriteFile(input, []byte(script), 0644); err != nil {
		return fmt.Errorf("failed to write cpptraj input: %w", err)
	}
	defer os.Remove(input)

	log, err := os.OpenFile(filepath.Join(outDir, logName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open cpptraj log: %w", err)
	}
	defer log.Close()

	util.LogDebugf("Running cpptraj on %s", input)
	return c.runner.Run(ctx, workDir, append(args, "-i", input), log)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
