// Package model holds the naming conventions shared by every analysis: how a
// simulation is identified and which comparative-analysis folder it belongs to.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Simulation identifies one MD replica, e.g. "1.4A_opc_3": the tunnel-opening
// epoch, the water model and the replica number.
type Simulation struct {
	ID      string `json:"id"`
	Epoch   string `json:"epoch"`
	Model   string `json:"model"`
	Replica int    `json:"replica"`
}

// ParseSimulationID splits "<epoch>A_<model>_<replica>".
func ParseSimulationID(id string) (Simulation, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return Simulation{}, fmt.Errorf("invalid simulation id %q: want <epoch>A_<model>_<replica>", id)
	}
	if !strings.HasSuffix(parts[0], "A") {
		return Simulation{}, fmt.Errorf("invalid simulation id %q: epoch %q has no A suffix", id, parts[0])
	}
	if _, err := strconv.ParseFloat(strings.TrimSuffix(parts[0], "A"), 64); err != nil {
		return Simulation{}, fmt.Errorf("invalid simulation id %q: epoch %q is not numeric", id, parts[0])
	}
	replica, err := strconv.Atoi(parts[2])
	if err != nil {
		return Simulation{}, fmt.Errorf("invalid simulation id %q: replica %q is not a number", id, parts[2])
	}

	return Simulation{
		ID:      id,
		Epoch:   parts[0],
		Model:   parts[1],
		Replica: replica,
	}, nil
}

// NewSimulation builds the canonical id from its parts. epoch may be given with
// or without the trailing "A".
func NewSimulation(epoch, waterModel string, replica int) Simulation {
	if !strings.HasSuffix(epoch, "A") {
		epoch += "A"
	}
	return Simulation{
		ID:      fmt.Sprintf("%s_%s_%d", epoch, waterModel, replica),
		Epoch:   epoch,
		Model:   waterModel,
		Replica: replica,
	}
}

// EpochValue returns the cutoff distance in angstrom ("1.4A" -> 1.4).
func (s Simulation) EpochValue() float64 {
	return epochValue(s.Epoch)
}

func epochValue(epoch string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSuffix(epoch, "A"), 64)
	return v
}

// ComparativeFolder is the TransportTools comparative-analysis folder that holds
// this simulation's statistics, "<model>_<epoch without A>".
func (s Simulation) ComparativeFolder() string {
	return ComparativeFolder(s.Model, s.Epoch)
}

// ComparativeFolder builds a folder name from a model and an epoch.
func ComparativeFolder(waterModel, epoch string) string {
	return waterModel + "_" + strings.TrimSuffix(epoch, "A")
}

// Less orders simulations by epoch value, then model, then replica.
func (s Simulation) Less(o Simulation) bool {
	if s.EpochValue() != o.EpochValue() {
		return s.EpochValue() < o.EpochValue()
	}
	if s.Model != o.Model {
		return s.Model < o.Model
	}
	return s.Replica < o.Replica
}

// Matrix enumerates every epoch x model x replica combination, sorted.
func Matrix(epochs, models []string, replicas int) []Simulation {
	sims := make([]Simulation, 0, len(epochs)*len(models)*replicas)
	for _, e := range epochs {
		for _, m := range models {
			for r := 1; r <= replicas; r++ {
				sims = append(sims, NewSimulation(e, m, r))
			}
		}
	}
	Sort(sims)
	return sims
}

// Sort orders sims in place.
func Sort(sims []Simulation) {
	sort.SliceStable(sims, func(i, j int) bool { return sims[i].Less(sims[j]) })
}

// IDs returns the ids of sims in order.
func IDs(sims []Simulation) []string {
	ids := make([]string, len(sims))
	for i, s := range sims {
		ids[i] = s.ID
	}
	return ids
}

// FolderGroup is the set of simulations that share a comparative folder.
type FolderGroup struct {
	Folder      string
	Model       string
	Epoch       string
	Simulations []Simulation
}

// GroupByFolder buckets sims by comparative folder. Folders come out ordered by
// model, then epoch, matching the layout of the comparative analysis.
func GroupByFolder(sims []Simulation) []FolderGroup {
	index := make(map[string]int)
	var groups []FolderGroup
	for _, s := range sims {
		folder := s.ComparativeFolder()
		i, ok := index[folder]
		if !ok {
			i = len(groups)
			index[folder] = i
			groups = append(groups, FolderGroup{Folder: folder, Model: s.Model, Epoch: s.Epoch})
		}
		groups[i].Simulations = append(groups[i].Simulations, s)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Model != groups[j].Model {
			return groups[i].Model < groups[j].Model
		}
		return epochValue(groups[i].Epoch) < epochValue(groups[j].Epoch)
	})
	for i := range groups {
		Sort(groups[i].Simulations)
	}
	return groups
}
