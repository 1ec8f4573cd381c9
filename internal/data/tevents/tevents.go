// Package tevents builds the transport event database from the exact matching
// analysis of TransportTools: for every event it keeps the snapshot in which
// the water passes the tunnel bottleneck closest to the ligand.
package tevents

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aravindramcb/water-models/internal/util"
	"github.com/bytedance/sonic"
)

const (
	noFrame        = -1
	noRadius       = 999.999
	noFraction     = -1.0
	dataSkipLines  = 4
	minDataColumns = 6

	// DefaultDistanceThreshold and DefaultFractionThreshold match the study setup.
	DefaultDistanceThreshold = 0.0
	DefaultFractionThreshold = 0.7
)

// Event is one transport event and the snapshot selected for it.
type Event struct {
	ID           int     `json:"tid"`
	WaterID      int     `json:"watid"`
	Frame        int     `json:"frame"`
	Radius       float64 `json:"radius"`
	DistToLigand float64 `json:"dist2lig"`
	Fraction     float64 `json:"fraction"`
	Type         string  `json:"event_type"`
	SuperCluster int     `json:"supercluster"`
	CaverCluster int     `json:"caver_cluster"`
}

func newEvent(id int) *Event {
	return &Event{
		ID:           id,
		Frame:        noFrame,
		Radius:       noRadius,
		DistToLigand: noRadius,
		Fraction:     noFraction,
		SuperCluster: -1,
		CaverCluster: -1,
	}
}

// Matched reports whether a snapshot passed the thresholds.
func (e Event) Matched() bool {
	return e.Frame > noFrame
}

// Thresholds select the snapshot of an event.
type Thresholds struct {
	// Distance is the largest accepted distance to the ligand.
	Distance float64
	// Fraction is the smallest accepted matching fraction of an event file.
	Fraction float64
}

// update applies one exact matching file to ev. The header is a description
// line, whose sixth quoted field carries the water id and whose last word is
// the super cluster, then a line ending in the matching fraction, four
// column header lines and comma separated rows.
func update(ev *Event, r io.Reader, source string, th Thresholds) error {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	if !lines.Scan() {
		return fmt.Errorf("%s: missing description line", source)
	}
	desc := strings.TrimSpace(lines.Text())
	if strings.Contains(desc, "entry") {
		ev.Type = "entry"
	} else {
		ev.Type = "release"
	}

	quoted := strings.Split(desc, "'")
	if len(quoted) < 7 || len(quoted[6]) <= 4 {
		return fmt.Errorf("%s:1: water id not found", source)
	}
	waterID, err := strconv.Atoi(strings.TrimSpace(quoted[6][4:]))
	if err != nil {
		return fmt.Errorf("%s:1: invalid water id %q", source, quoted[6][4:])
	}
	words := strings.Fields(desc)
	sc, err := strconv.Atoi(words[len(words)-1])
	if err != nil {
		return fmt.Errorf("%s:1: invalid super cluster %q", source, words[len(words)-1])
	}

	if !lines.Scan() {
		return fmt.Errorf("%s: missing fraction line", source)
	}
	words = strings.Fields(lines.Text())
	if len(words) == 0 {
		return fmt.Errorf("%s:2: empty fraction line", source)
	}
	fraction, err := strconv.ParseFloat(words[len(words)-1], 64)
	if err != nil {
		return fmt.Errorf("%s:2: invalid fraction %q", source, words[len(words)-1])
	}
	if fraction < th.Fraction || fraction <= ev.Fraction {
		return nil
	}

	n := 2
	for lines.Scan() {
		n++
		if n <= 2+dataSkipLines {
			continue
		}
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}

		tokens := strings.Split(line, ",")
		if len(tokens) < minDataColumns {
			return fmt.Errorf("%s:%d: want at least %d columns", source, n, minDataColumns)
		}
		chunks := make([]float64, len(tokens))
		for i, tok := range tokens {
			v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
			if err != nil {
				return fmt.Errorf("%s:%d: column %d: invalid number %q", source, n, i+1, strings.TrimSpace(tok))
			}
			chunks[i] = v
		}

		radius := chunks[len(chunks)-2]
		if chunks[4] <= th.Distance && radius < ev.Radius {
			ev.WaterID = waterID
			ev.SuperCluster = sc
			ev.Fraction = fraction
			ev.Frame = int(chunks[0])
			ev.Radius = radius
			ev.DistToLigand = chunks[4]
			ev.CaverCluster = int(chunks[5])
		}
	}
	return lines.Err()
}

func eventID(name string) (int, error) {
	head, _, _ := strings.Cut(name, "_")
	id, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("file %s does not start with an event id", name)
	}
	return id, nil
}

// analyze folds the files of one kind into events keyed by event id. Events
// keep the order in which their first file appears.
func analyze(dir string, names []string, th Thresholds) ([]*Event, error) {
	index := make(map[int]*Event)
	var order []*Event
	for _, name := range names {
		id, err := eventID(name)
		if err != nil {
			return nil, err
		}
		ev, ok := index[id]
		if !ok {
			ev = newEvent(id)
			index[id] = ev
			order = append(order, ev)
		}

		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open event file: %w", err)
		}
		err = update(ev, f, path, th)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ParseSimulation reads the exact matching folder of one simulation and
// returns its matched entry events followed by its matched release events.
func ParseSimulation(dir string, th Thresholds) ([]Event, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list exact matching results: %w", err)
	}

	var entryFiles, releaseFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.Contains(name, "entry") {
			entryFiles = append(entryFiles, name)
		}
		if strings.Contains(name, "release") {
			releaseFiles = append(releaseFiles, name)
		}
	}
	sort.Strings(entryFiles)
	sort.Strings(releaseFiles)

	events := []Event{}
	for _, names := range [][]string{entryFiles, releaseFiles} {
		evs, err := analyze(dir, names, th)
		if err != nil {
			return nil, err
		}
		for _, ev := range evs {
			if ev.Matched() {
				events = append(events, *ev)
			}
		}
	}
	return events, nil
}

// Database holds matched events per simulation.
type Database struct {
	CreatedAt   time.Time          `json:"created_at"`
	Distance    float64            `json:"distance_threshold"`
	Fraction    float64            `json:"fraction_threshold"`
	Simulations map[string][]Event `json:"simulations"`
}

// Build reads the exact matching folder of every simulation under root,
// running at most concurrency simulations at once.
func Build(root string, sims []string, th Thresholds, concurrency int) (*Database, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	db := &Database{
		CreatedAt:   time.Now(),
		Distance:    th.Distance,
		Fraction:    th.Fraction,
		Simulations: make(map[string][]Event, len(sims)),
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	semaphore := make(chan struct{}, concurrency)

	for _, sim := range sims {
		wg.Add(1)
		go func(sim string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			start := time.Now()
			events, err := ParseSimulation(filepath.Join(root, sim), th)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("simulation %s: %w", sim, err)
				}
				return
			}
			db.Simulations[sim] = events
			util.LogDebugf("Parsed %d matched events of %s in %v", len(events), sim, time.Since(start))
		}(sim)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return db, nil
}

// Names returns the simulations in the database, sorted.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.Simulations))
	for name := range db.Simulations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Frames returns the distinct selected frames of sim in ascending order.
func (db *Database) Frames(sim string) []int {
	seen := make(map[int]bool)
	var frames []int
	for _, ev := range db.Simulations[sim] {
		if !seen[ev.Frame] {
			seen[ev.Frame] = true
			frames = append(frames, ev.Frame)
		}
	}
	sort.Ints(frames)
	return frames
}

// Save writes the database as JSON.
func (db *Database) Save(path string) error {
	data, err := sonic.ConfigStd.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode event database: %w", err)
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write event database: %w", err)
	}
	return nil
}

// Load reads a database written by Save.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event database: %w", err)
	}
	var db Database
	if err := sonic.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("failed to decode event database %s: %w", path, err)
	}
	if db.Simulations == nil {
		db.Simulations = make(map[string][]Event)
	}
	return &db, nil
}
