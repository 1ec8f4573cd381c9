package parser

import (
	"fmt"
	"strings"
)

// EventStats is one super cluster row of the events statistics report.
type EventStats struct {
	SCID          int     `json:"sc_id"`
	NoSims        int     `json:"no_sims"`
	TotalNoFrames int     `json:"total_no_frames"`
	AvgNoFrames   float64 `json:"avg_no_frames"`
	AvgBR         float64 `json:"avg_br"`
	StDevBR       float64 `json:"stdev_br"`
	MaxBR         float64 `json:"max_br"`
	AvgLen        float64 `json:"avg_len"`
	StDevLen      float64 `json:"stdev_len"`
	AvgCur        float64 `json:"avg_cur"`
	StDevCur      float64 `json:"stdev_cur"`
	AvgThroughput float64 `json:"avg_throughput"`
	StDevThrough  float64 `json:"stdev_throughput"`
	Priority      float64 `json:"priority"`
	NumEvents     int     `json:"num_events"`
	NumEntries    int     `json:"num_entries"`
	NumReleases   int     `json:"num_releases"`
}

// TunnelStats is a super cluster row of the tunnel statistics report. It
// carries the same leading columns as EventStats.
type TunnelStats struct {
	SCID          int     `json:"sc_id"`
	NoSims        int     `json:"no_sims"`
	TotalNoFrames int     `json:"total_no_frames"`
	AvgNoFrames   float64 `json:"avg_no_frames"`
	AvgBR         float64 `json:"avg_br"`
	StDevBR       float64 `json:"stdev_br"`
	MaxBR         float64 `json:"max_br"`
	AvgLen        float64 `json:"avg_len"`
	StDevLen      float64 `json:"stdev_len"`
	AvgCur        float64 `json:"avg_cur"`
	StDevCur      float64 `json:"stdev_cur"`
	AvgThroughput float64 `json:"avg_throughput"`
	StDevThrough  float64 `json:"stdev_throughput"`
	Priority      float64 `json:"priority"`
}

// Unassigned counts transport events that were not attributed to any super
// cluster, for a comparative folder or a single simulation.
type Unassigned struct {
	ID       string `json:"id"`
	Total    int    `json:"total"`
	Entries  int    `json:"entries"`
	Releases int    `json:"releases"`
}

func newEventStats(v []Value) EventStats {
	return EventStats{
		SCID:          v[0].Int(),
		NoSims:        v[1].Int(),
		TotalNoFrames: v[2].Int(),
		AvgNoFrames:   v[3].Float(),
		AvgBR:         v[4].Float(),
		StDevBR:       v[5].Float(),
		MaxBR:         v[6].Float(),
		AvgLen:        v[7].Float(),
		StDevLen:      v[8].Float(),
		AvgCur:        v[9].Float(),
		StDevCur:      v[10].Float(),
		AvgThroughput: v[11].Float(),
		StDevThrough:  v[12].Float(),
		Priority:      v[13].Float(),
		NumEvents:     v[14].Int(),
		NumEntries:    v[15].Int(),
		NumReleases:   v[16].Int(),
	}
}

func newTunnelStats(v []Value) TunnelStats {
	return TunnelStats{
		SCID:          v[0].Int(),
		NoSims:        v[1].Int(),
		TotalNoFrames: v[2].Int(),
		AvgNoFrames:   v[3].Float(),
		AvgBR:         v[4].Float(),
		StDevBR:       v[5].Float(),
		MaxBR:         v[6].Float(),
		AvgLen:        v[7].Float(),
		StDevLen:      v[8].Float(),
		AvgCur:        v[9].Float(),
		StDevCur:      v[10].Float(),
		AvgThroughput: v[11].Float(),
		StDevThrough:  v[12].Float(),
		Priority:      v[13].Float(),
	}
}

// ParseTrailer decodes the unassigned summary that closes an events report,
// e.g. "Total number of unassigned events: 120, 70, 50": the sixth
// word of the first comma field is the total, then entries and releases.
func ParseTrailer(line string) (Unassigned, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return Unassigned{}, fmt.Errorf("unassigned trailer %q: want 3 comma separated fields", strings.TrimSpace(line))
	}
	words := strings.Fields(parts[0])
	if len(words) < 6 {
		return Unassigned{}, fmt.Errorf("unassigned trailer %q: total not found", strings.TrimSpace(line))
	}

	var u Unassigned
	for i, tok := range []string{words[5], parts[1], parts[2]} {
		v, err := ParseValue(tok)
		if err != nil || v.IsFloat {
			return Unassigned{}, fmt.Errorf("unassigned trailer %q: field %d: not an integer", strings.TrimSpace(line), i+1)
		}
		switch i {
		case 0:
			u.Total = v.Int()
		case 1:
			u.Entries = v.Int()
		case 2:
			u.Releases = v.Int()
		}
	}
	return u, nil
}
