package parser

import "strings"

// Format describes one fixed-offset report variant produced by TransportTools.
type Format struct {
	Name string
	// HeaderLines are skipped from the top of the file.
	HeaderLines int
	// FooterLines are dropped from the end of the file. When Trailer is set the
	// last footer line is decoded as the unassigned-events summary.
	FooterLines int
	// Delimiter separates columns. Empty means runs of whitespace.
	Delimiter string
	// Placeholder marks a row without data; any line containing it is skipped.
	Placeholder string
	Trailer     bool
	// Columns names the expected fields. Rows with fewer tokens are rejected.
	Columns []string
}

var eventColumns = []string{
	"SC_ID", "No_Sims", "Total_No_Frames", "Avg_No_Frames",
	"Avg_BR", "StDev_BR", "Max_BR",
	"Avg_Len", "StDev_Len", "Avg_Cur", "StDev_Cur",
	"Avg_throug", "StDev_through", "Priority",
	"Num_Events", "Num_entries", "Num_releases",
}

// EventStatistics is 4-filtered_events_statistics.txt of a comparative folder.
var EventStatistics = Format{
	Name:        "events",
	HeaderLines: 21,
	FooterLines: 1,
	Delimiter:   ",",
	Placeholder: "-",
	Trailer:     true,
	Columns:     eventColumns,
}

// TunnelStatistics is 2-filtered_tunnels_statistics.txt, the super cluster
// statistics before transport events are assigned.
var TunnelStatistics = Format{
	Name:        "tunnels",
	HeaderLines: 18,
	FooterLines: 1,
	Delimiter:   ",",
	Placeholder: "-",
	Columns:     eventColumns[:14],
}

const (
	EventStatisticsFile  = "4-filtered_events_statistics.txt"
	TunnelStatisticsFile = "2-filtered_tunnels_statistics.txt"
)

func (f Format) split(line string) []string {
	if f.Delimiter == "" {
		return strings.Fields(line)
	}
	return strings.Split(line, f.Delimiter)
}

func (f Format) skip(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return f.Placeholder != "" && strings.Contains(line, f.Placeholder)
}
