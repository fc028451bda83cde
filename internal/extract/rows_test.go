package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterRowsGroupsByVerticalProximity(t *testing.T) {
	fragments := []Fragment{
		{Text: "a", CenterX: 0, CenterY: 100},
		{Text: "b", CenterX: 50, CenterY: 105},
		{Text: "c", CenterX: 100, CenterY: 110},
		{Text: "d", CenterX: 0, CenterY: 150},
		{Text: "e", CenterX: 50, CenterY: 155},
		{Text: "f", CenterX: 100, CenterY: 160},
	}

	rows := ClusterRows(fragments)
	require.Len(t, rows, 2)
	assert.Equal(t, "a b c", rows[0].Text())
	assert.Equal(t, "d e f", rows[1].Text())
}

func TestClusterRowsThresholdBoundary(t *testing.T) {
	// A gap of exactly rowThreshold starts a new row; the second group
	// has too few fragments and is dropped.
	fragments := []Fragment{
		{Text: "a", CenterY: 100},
		{Text: "b", CenterY: 105},
		{Text: "c", CenterY: 110},
		{Text: "d", CenterY: 130},
	}

	rows := ClusterRows(fragments)
	require.Len(t, rows, 1)
	assert.Equal(t, "a b c", rows[0].Text())
}

func TestClusterRowsDropsSmallRows(t *testing.T) {
	fragments := []Fragment{
		{Text: "a", CenterY: 100},
		{Text: "b", CenterY: 105},
	}

	assert.Empty(t, ClusterRows(fragments))
}

func TestClusterRowsOrdersLeftToRight(t *testing.T) {
	fragments := []Fragment{
		{Text: "right", CenterX: 200, CenterY: 100},
		{Text: "left", CenterX: 0, CenterY: 102},
		{Text: "mid", CenterX: 100, CenterY: 104},
	}

	rows := ClusterRows(fragments)
	require.Len(t, rows, 1)
	assert.Equal(t, "left mid right", rows[0].Text())
}

func TestClusterRowsEmpty(t *testing.T) {
	assert.Nil(t, ClusterRows(nil))
}
