//go:build integration

package store

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/netpec/internal/testutil"
	"github.com/newtron-network/netpec/pkg/util"
)

func TestPublishRoundTrip(t *testing.T) {
	testutil.SkipIfNoRedis(t)
	testutil.FlushDB(t)

	ctx := testutil.Context(t)
	s := NewWithClient(testutil.RedisClient(t))
	require.NoError(t, s.Ping(ctx))

	result := testutil.AnalyzedFixture(t)
	id := result.ID.String()
	require.NoError(t, s.Publish(ctx, result))

	// one summary, one tree, one hash per PEC
	assert.Equal(t, len(result.PECs)+2, testutil.KeyCount(t))
	assert.Equal(t, "r1", testutil.ReadEntry(t, TableAnalysis, id)["hostnames"])
	assert.True(t, testutil.EntryExists(t, TablePEC, id, strconv.Itoa(result.PECs[0].ID)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, len(result.PECs), list[0].PECs)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Entries, len(result.PECs))
	for i, e := range got.Entries {
		assert.Equal(t, result.PECs[i].ID, e.ID)
		assert.Equal(t, result.PECs[i].Prefix, e.Prefix)
	}

	tree, err := s.Tree(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, result.TrieStats.TotalNodes, tree.Count())

	require.NoError(t, s.Delete(ctx, id))
	assert.Zero(t, testutil.KeyCount(t))

	_, err = s.Get(ctx, id)
	assert.True(t, errors.Is(err, util.ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, id), util.ErrNotFound))
	_, err = s.Tree(ctx, id)
	assert.True(t, errors.Is(err, util.ErrNotFound))
}
