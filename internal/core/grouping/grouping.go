// Package grouping attributes observed super clusters to user-defined tunnel
// groups (P1, P2, ...) and a synthetic "others" bucket.
package grouping

import (
	"fmt"
	"sort"
)

// Others collects observed super clusters that belong to no defined group.
const Others = "others"

// Mode selects how an ID listed in several group definitions is attributed.
type Mode string

const (
	// ModeAll puts an ID into every group whose definition lists it.
	ModeAll Mode = "all"
	// ModeFirst puts an ID into the first matching group only.
	ModeFirst Mode = "first"
)

// ParseMode validates a mode name; empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeFirst:
		return ModeFirst, nil
	default:
		return "", fmt.Errorf("unknown attribution mode %q (want %q or %q)", s, ModeAll, ModeFirst)
	}
}

// Definition is one named group of super-cluster IDs.
type Definition struct {
	Name          string `json:"name"`
	SuperClusters []int  `json:"superclusters"`
}

// Definitions is ordered; the order decides output order and ModeFirst priority.
type Definitions []Definition

// Names returns the group names followed by Others.
func (d Definitions) Names() []string {
	names := make([]string, 0, len(d)+1)
	for _, def := range d {
		names = append(names, def.Name)
	}
	return append(names, Others)
}

// Lookup returns the definition called name.
func (d Definitions) Lookup(name string) (Definition, bool) {
	for _, def := range d {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Defined reports whether id appears in any definition.
func (d Definitions) Defined(id int) bool {
	for _, def := range d {
		if contains(def.SuperClusters, id) {
			return true
		}
	}
	return false
}

// Overlaps lists IDs that appear in more than one definition, sorted.
func (d Definitions) Overlaps() []int {
	seen := make(map[int]int)
	for _, def := range d {
		unique := make(map[int]bool)
		for _, id := range def.SuperClusters {
			if !unique[id] {
				unique[id] = true
				seen[id]++
			}
		}
	}

	var out []int
	for id, n := range seen {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Validate rejects empty or duplicate names and the reserved name Others.
func (d Definitions) Validate() error {
	names := make(map[string]bool, len(d))
	for i, def := range d {
		if def.Name == "" {
			return fmt.Errorf("group %d has no name", i)
		}
		if def.Name == Others {
			return fmt.Errorf("group name %q is reserved", Others)
		}
		if names[def.Name] {
			return fmt.Errorf("duplicate group name %q", def.Name)
		}
		names[def.Name] = true
	}
	return nil
}

// Members is the IDs attributed to one group.
type Members struct {
	Name          string `json:"name"`
	SuperClusters []int  `json:"superclusters"`
}

// Assignment is the ordered result for one comparative folder: every defined
// group in definition order, then Others.
type Assignment struct {
	Groups []Members `json:"groups"`
}

// Attribute partitions observed IDs into the defined groups. IDs keep their
// observation order inside each group; unobserved IDs are never reported.
func Attribute(defs Definitions, observed []int, mode Mode) Assignment {
	a := Assignment{Groups: make([]Members, 0, len(defs)+1)}
	taken := make(map[int]bool)

	for _, def := range defs {
		m := Members{Name: def.Name, SuperClusters: []int{}}
		for _, id := range observed {
			if !contains(def.SuperClusters, id) {
				continue
			}
			if mode == ModeFirst && taken[id] {
				continue
			}
			m.SuperClusters = append(m.SuperClusters, id)
		}
		for _, id := range m.SuperClusters {
			taken[id] = true
		}
		a.Groups = append(a.Groups, m)
	}

	others := Members{Name: Others, SuperClusters: []int{}}
	for _, id := range observed {
		if !taken[id] {
			others.SuperClusters = append(others.SuperClusters, id)
		}
	}
	a.Groups = append(a.Groups, others)

	return a
}

// Get returns the IDs attributed to name, or nil.
func (a Assignment) Get(name string) []int {
	for _, g := range a.Groups {
		if g.Name == name {
			return g.SuperClusters
		}
	}
	return nil
}

// Contains reports whether id was attributed to group name.
func (a Assignment) Contains(name string, id int) bool {
	return contains(a.Get(name), id)
}

// Names returns the group names in output order.
func (a Assignment) Names() []string {
	names := make([]string, len(a.Groups))
	for i, g := range a.Groups {
		names[i] = g.Name
	}
	return names
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AttributeFolders attributes the super clusters observed in each comparative
// folder independently.
func AttributeFolders(defs Definitions, observed map[string][]int, mode Mode) map[string]Assignment {
	out := make(map[string]Assignment, len(observed))
	for folder, ids := range observed {
		out[folder] = Attribute(defs, ids, mode)
	}
	return out
}
