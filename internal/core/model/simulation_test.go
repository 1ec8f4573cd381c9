package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimulationID(t *testing.T) {
	sim, err := ParseSimulationID("1.4A_tip4pew_3")
	require.NoError(t, err)
	assert.Equal(t, "1.4A", sim.Epoch)
	assert.Equal(t, "tip4pew", sim.Model)
	assert.Equal(t, 3, sim.Replica)
	assert.InDelta(t, 1.4, sim.EpochValue(), 1e-9)
	assert.Equal(t, "tip4pew_1.4", sim.ComparativeFolder())
}

func TestParseSimulationIDErrors(t *testing.T) {
	for _, id := range []string{"", "opc_1", "1.4_opc_1", "xA_opc_1", "1A_opc_x", "1A_opc_1_2"} {
		t.Run(id, func(t *testing.T) {
			_, err := ParseSimulationID(id)
			assert.Error(t, err)
		})
	}
}

func TestNewSimulation(t *testing.T) {
	assert.Equal(t, "3A_opc_5", NewSimulation("3", "opc", 5).ID)
	assert.Equal(t, "3A_opc_5", NewSimulation("3A", "opc", 5).ID)
}

func TestMatrixOrdering(t *testing.T) {
	sims := Matrix([]string{"3A", "1A", "1.4A"}, []string{"tip3p", "opc"}, 2)
	require.Len(t, sims, 12)

	assert.Equal(t, []string{
		"1A_opc_1", "1A_opc_2", "1A_tip3p_1", "1A_tip3p_2",
		"1.4A_opc_1", "1.4A_opc_2", "1.4A_tip3p_1", "1.4A_tip3p_2",
		"3A_opc_1", "3A_opc_2", "3A_tip3p_1", "3A_tip3p_2",
	}, IDs(sims))
}

func TestGroupByFolder(t *testing.T) {
	sims := Matrix([]string{"1A", "2.4A"}, []string{"tip3p", "opc"}, 2)
	groups := GroupByFolder(sims)
	require.Len(t, groups, 4)

	assert.Equal(t, "opc_1", groups[0].Folder)
	assert.Equal(t, "opc_2.4", groups[1].Folder)
	assert.Equal(t, "tip3p_1", groups[2].Folder)
	assert.Equal(t, "tip3p_2.4", groups[3].Folder)
	assert.Equal(t, []string{"2.4A_tip3p_1", "2.4A_tip3p_2"}, IDs(groups[3].Simulations))
}
