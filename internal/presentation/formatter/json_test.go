package formatter

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatterSingleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, sampleTable()))

	var got jsonTable
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Transport events", got.Title)
	assert.Equal(t, []string{"Folder", "P1", "P2", "others"}, got.Headers)
	assert.Len(t, got.Rows, 2)
	assert.Equal(t, []string{"Unassigned: 12"}, got.Notes)
}

func TestJSONFormatterData(t *testing.T) {
	type row struct {
		Simulation string `json:"simulation"`
		Waters     int    `json:"waters"`
	}
	var buf bytes.Buffer
	table := Table{Title: "Traced waters", Headers: []string{"ignored"}, Data: []row{{"1A_opc_1", 120}}}
	require.NoError(t, NewJSONFormatter().Format(&buf, table, table))

	var got []map[string]interface{}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.NotContains(t, got[0], "columns")
	data := got[0]["data"].([]interface{})
	assert.Equal(t, "1A_opc_1", data[0].(map[string]interface{})["simulation"])
	assert.Equal(t, float64(120), data[0].(map[string]interface{})["waters"])
}
