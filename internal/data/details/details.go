package details

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	TransitFile  = "filtered_super_cluster_details2.txt"
	OutlierFile  = "outlier_transport_events_details.txt"
	InitialFile  = "initial_super_cluster_details.txt"
	maxLineBytes = 10 * 1024 * 1024
)

// Kind distinguishes water entering a tunnel from water leaving it.
type Kind string

const (
	Entry   Kind = "entry"
	Release Kind = "release"
)

// Event is one AQUA-DUCT passage through a tunnel, as a frame range.
type Event struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Duration is the number of frames the event took.
func (e Event) Duration() int {
	return e.End - e.Start
}

// Frames lists every frame from Start to End inclusive.
func (e Event) Frames() []int {
	if e.End < e.Start {
		return []int{}
	}
	frames := make([]int, 0, e.End-e.Start+1)
	for f := e.Start; f <= e.End; f++ {
		frames = append(frames, f)
	}
	return frames
}

// Block is the event listing of one super cluster.
type Block struct {
	SuperCluster int `json:"super_cluster"`
	// Simulations have at least one tunnel cluster in this super cluster.
	Simulations []string           `json:"simulations"`
	Entries     map[string][]Event `json:"entries"`
	Releases    map[string][]Event `json:"releases"`
}

func newBlock(id int) *Block {
	return &Block{
		SuperCluster: id,
		Entries:      make(map[string][]Event),
		Releases:     make(map[string][]Event),
	}
}

func (b *Block) add(kind Kind, sim string, events []Event) {
	if kind == Entry {
		b.Entries[sim] = append(b.Entries[sim], events...)
		return
	}
	b.Releases[sim] = append(b.Releases[sim], events...)
}

// Events returns the events of one kind for sim.
func (b Block) Events(kind Kind, sim string) []Event {
	if kind == Entry {
		return b.Entries[sim]
	}
	return b.Releases[sim]
}

// Combined returns entry events followed by release events for sim.
func (b Block) Combined(sim string) []Event {
	out := make([]Event, 0, len(b.Entries[sim])+len(b.Releases[sim]))
	out = append(out, b.Entries[sim]...)
	return append(out, b.Releases[sim]...)
}

// Transit is the parsed transit report, one block per super cluster.
type Transit struct {
	Path   string  `json:"path"`
	Blocks []Block `json:"blocks"`
	index  map[int]int
}

// Block looks up a super cluster.
func (t *Transit) Block(sc int) (Block, bool) {
	if t.index == nil {
		// decoded from the cache
		for _, b := range t.Blocks {
			if b.SuperCluster == sc {
				return b, true
			}
		}
		return Block{}, false
	}
	i, ok := t.index[sc]
	if !ok {
		return Block{}, false
	}
	return t.Blocks[i], true
}

// SuperClusters lists the super cluster ids in ascending order.
func (t *Transit) SuperClusters() []int {
	ids := make([]int, 0, len(t.Blocks))
	for _, b := range t.Blocks {
		ids = append(ids, b.SuperCluster)
	}
	sort.Ints(ids)
	return ids
}

// ParseTransit runs the scanner over r.
func ParseTransit(r io.Reader, source string) (*Transit, error) {
	sc := NewScanner(source)
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for lines.Scan() {
		if err := sc.Feed(lines.Text()); err != nil {
			return nil, err
		}
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if err := sc.Finish(); err != nil {
		return nil, err
	}

	t := &Transit{Path: source, Blocks: sc.Blocks(), index: make(map[int]int)}
	for i, b := range t.Blocks {
		t.index[b.SuperCluster] = i
	}
	return t, nil
}

// ReadTransit parses the transit report at path. The file is required.
func ReadTransit(path string) (*Transit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transit report: %w", err)
	}
	defer f.Close()

	return ParseTransit(f, path)
}
