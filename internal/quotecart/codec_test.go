package quotecart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLinesRepairsEntries(t *testing.T) {
	t.Parallel()

	raw := `[
		{"id":"a","slug":"bolt","name":"Bolt","option":"M10","min_qty":0,"quantity":0,"available":true},
		{"id":"","slug":"nut","option":"M10","quantity":5},
		{"id":"b","slug":"","option":"M10","quantity":5},
		{"id":"a","slug":"washer","option":"M10","quantity":5},
		{"id":"c","slug":"bolt","option":"M10","quantity":5},
		{"id":"d","slug":"nut","name":"Nut","option":"M6","min_qty":20,"quantity":4,"available":false}
	]`

	lines, dropped, err := decodeLines(raw)
	require.NoError(t, err)
	assert.Equal(t, 4, dropped)
	require.Len(t, lines, 2)

	assert.Equal(t, "a", lines[0].ID)
	assert.Equal(t, 1, lines[0].MinQty)
	assert.Equal(t, 1, lines[0].Quantity)

	assert.Equal(t, "d", lines[1].ID)
	assert.Equal(t, 20, lines[1].Quantity)
	assert.False(t, lines[1].Available)
}

func TestDecodeLinesRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, _, err := decodeLines(`{"not":"an array"}`)
	assert.Error(t, err)

	_, _, err = decodeLines(`[{"id":`)
	assert.Error(t, err)

	lines, dropped, err := decodeLines("  ")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, dropped)
}

func TestEncodeLinesEmptyIsArray(t *testing.T) {
	t.Parallel()

	out, err := encodeLines(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
