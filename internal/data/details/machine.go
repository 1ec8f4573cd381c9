// Package details reads the per super cluster listings of TransportTools
// (data/super_clusters/details): transport events with their frame ranges,
// events that were never assigned to a super cluster, and the CAVER clusters
// that form each super cluster.
package details

import (
	"fmt"
	"strconv"
	"strings"
)

// State is a position of the transit report scanner.
type State int

const (
	// SeekHeader skips lines until a "Super" header opens a block.
	SeekHeader State = iota
	// SeekTunnels skips block preamble until the first tunnel cluster line.
	SeekTunnels
	// InTunnels reads tunnel cluster lines until a blank line.
	InTunnels
	// SeekEntry skips lines until the entry or release section.
	SeekEntry
	InEntry
	InRelease
	Done
)

var stateNames = [...]string{"SeekHeader", "SeekTunnels", "InTunnels", "SeekEntry", "InEntry", "InRelease", "Done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseError reports a line the scanner could not accept in its current state.
type ParseError struct {
	Path  string
	Line  int
	State State
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.State, e.Msg)
}

// Scanner is a line driven state machine over filtered_super_cluster_details2.txt.
// Feed it every line in order and call Finish at EOF.
type Scanner struct {
	source  string
	state   State
	line    int
	current *Block
	tunnels map[string]bool
	blocks  []Block
	seen    map[int]bool
}

// NewScanner starts a scanner in SeekHeader. source names the input in errors.
func NewScanner(source string) *Scanner {
	return &Scanner{source: source, state: SeekHeader, seen: make(map[int]bool)}
}

// State returns the current state.
func (s *Scanner) State() State { return s.state }

// Blocks returns the completed super cluster blocks.
func (s *Scanner) Blocks() []Block { return s.blocks }

func (s *Scanner) fail(format string, args ...interface{}) error {
	return &ParseError{Path: s.source, Line: s.line, State: s.state, Msg: fmt.Sprintf(format, args...)}
}

// Feed consumes one line (without its newline) and performs one transition.
func (s *Scanner) Feed(line string) error {
	s.line++

	switch s.state {
	case SeekHeader:
		if strings.HasPrefix(line, "Super") {
			return s.open(line)
		}

	case SeekTunnels:
		switch {
		case strings.HasPrefix(line, "from"):
			s.state = InTunnels
			return s.addTunnel(line)
		case strings.HasPrefix(line, "Super"):
			return s.fail("super cluster %d has no tunnel clusters", s.current.SuperCluster)
		}

	case InTunnels:
		if line == "" {
			s.state = SeekEntry
			return nil
		}
		return s.addTunnel(line)

	case SeekEntry:
		switch {
		case strings.HasPrefix(line, "entry"):
			s.state = InEntry
		case strings.HasPrefix(line, "release"):
			s.state = InRelease
		case strings.HasPrefix(line, "-"):
			s.close()
		case strings.HasPrefix(line, "Super"):
			return s.fail("super cluster %d ends without an event section", s.current.SuperCluster)
		}

	case InEntry:
		switch {
		case strings.HasPrefix(line, "release"):
			s.state = InRelease
		case strings.HasPrefix(line, "-"):
			s.close()
		case strings.HasPrefix(line, "entry"):
		default:
			return s.addEvents(line, Entry)
		}

	case InRelease:
		switch {
		case strings.HasPrefix(line, "-"):
			s.close()
		case strings.HasPrefix(line, "Super"):
			s.close()
			return s.open(line)
		case strings.HasPrefix(line, "release"):
		default:
			return s.addEvents(line, Release)
		}

	case Done:
		return s.fail("input after end of report")
	}

	return nil
}

// Finish marks EOF. It fails when the input ends inside a block.
func (s *Scanner) Finish() error {
	if s.state != SeekHeader && s.state != Done {
		return s.fail("unexpected end of file inside super cluster %d", s.current.SuperCluster)
	}
	s.state = Done
	return nil
}

func (s *Scanner) open(line string) error {
	fields := strings.Split(line, " ")
	if len(fields) < 3 {
		return s.fail("malformed header %q", line)
	}
	id, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return s.fail("malformed super cluster id in %q", line)
	}
	if s.seen[id] {
		return s.fail("super cluster %d listed twice", id)
	}
	s.seen[id] = true

	s.current = newBlock(id)
	s.tunnels = make(map[string]bool)
	s.state = SeekTunnels
	return nil
}

func (s *Scanner) close() {
	s.blocks = append(s.blocks, *s.current)
	s.current = nil
	s.tunnels = nil
	s.state = SeekHeader
}

// addTunnel reads "from <sim>: <caver cluster ids>".
func (s *Scanner) addTunnel(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return s.fail("malformed tunnel cluster line %q", line)
	}
	sim := strings.TrimSuffix(fields[1], ":")
	if !s.tunnels[sim] {
		s.tunnels[sim] = true
		s.current.Simulations = append(s.current.Simulations, sim)
	}
	return nil
}

// addEvents reads "from <sim>: <aq id>, (<res>), <start>-><end>; ...". Events of
// simulations without a tunnel cluster in this block are dropped.
func (s *Scanner) addEvents(line string, kind Kind) error {
	head, body, ok := strings.Cut(line, ":")
	if !ok {
		return s.fail("malformed %s line %q", kind, line)
	}
	headFields := strings.Split(head, " ")
	if len(headFields) < 2 || headFields[0] != "from" {
		return s.fail("malformed %s line %q", kind, line)
	}
	sim := headFields[1]

	items := strings.Split(body, ";")
	items = items[:len(items)-1]
	events := make([]Event, 0, len(items))
	for _, item := range items {
		ev, err := parseEvent(item)
		if err != nil {
			return s.fail("%s event %q: %v", kind, strings.TrimSpace(item), err)
		}
		events = append(events, ev)
	}

	if !s.tunnels[sim] {
		return nil
	}
	s.current.add(kind, sim, events)
	return nil
}

func parseEvent(item string) (Event, error) {
	parts := strings.Split(item, ",")
	if len(parts) < 3 {
		return Event{}, fmt.Errorf("want at least 3 comma separated fields")
	}
	start, end, ok := strings.Cut(strings.TrimSpace(parts[2]), "->")
	if !ok {
		return Event{}, fmt.Errorf("frame range %q has no ->", strings.TrimSpace(parts[2]))
	}
	s, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return Event{}, fmt.Errorf("start frame: %w", err)
	}
	e, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return Event{}, fmt.Errorf("end frame: %w", err)
	}
	return Event{Start: s, End: e}, nil
}
