package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValueBlockContainsTitleAndPairs(t *testing.T) {
	result := KeyValueBlock("Batch #3", [][2]string{
		{"Quantity", "120 L"},
		{"Price", "0.01 ETH"},
	})
	assert.Contains(t, result, "Batch #3")
	assert.Contains(t, result, "Quantity")
	assert.Contains(t, result, "120 L")
	assert.Contains(t, result, "0.01 ETH")
}

func TestKeyValueBlockNoPairs(t *testing.T) {
	result := KeyValueBlock("Empty", [][2]string{})
	assert.Contains(t, result, "Empty")
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{{Title: "ID", Width: 4}, {Title: "FARMER", Width: 12}})
	tbl.AddRow(Row{"1", "0x1234…5678"})
	tbl.AddRow(Row{"2"}) // short row

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "FARMER")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "0x1234…5678")
	assert.Contains(t, lines[3], "2")
}

func TestPadR(t *testing.T) {
	assert.Equal(t, "ab  ", PadR("ab", 4))
	assert.Equal(t, "abc…", PadR("abcdef", 4))
	assert.Equal(t, "…", PadR("abcdef", 1))
	assert.Equal(t, "", PadR("abc", 0))
	assert.Equal(t, "é   ", PadR("é", 4))
}
