package estimate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/ratewise/internal/common"
)

func TestFetchLimit(t *testing.T) {
	assert.Equal(t, 20, FetchLimit(1))
	assert.Equal(t, 20, FetchLimit(10))
	assert.Equal(t, 24, FetchLimit(12))
	assert.Equal(t, 200, FetchLimit(100))
}

func TestNameTokens(t *testing.T) {
	assert.Equal(t, []string{"Ceramic", "Floor", "Tiling"}, NameTokens("  Ceramic   Floor\tTiling "))
	assert.Equal(t,
		[]string{"a", "b", "c", "d", "e", "f"},
		NameTokens("a b c d e f g h"))
	assert.Empty(t, NameTokens("   "))
}

func TestRetriever_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("query shape", func(t *testing.T) {
		store := &fakeStore{}
		r := NewRetriever(store)

		_, err := r.Retrieve(ctx, " Reinforced concrete slab 25cm thick grade C30 poured ", " m3 ", " STR ", 12)
		require.NoError(t, err)
		require.Len(t, store.queries, 1)

		q := store.queries[0]
		assert.Equal(t, "m3", q.Unit)
		assert.Equal(t, "STR", q.TradeID)
		assert.Equal(t, []string{"Reinforced", "concrete", "slab", "25cm", "thick", "grade"}, q.Tokens)
		assert.Equal(t, 24, q.Limit)
	})

	t.Run("top is newest first and capped at k", func(t *testing.T) {
		records := recordsWithFinalRates(10, 20, 30, 40, 50)
		// Store returns them oldest first.
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
		store := &fakeStore{records: records}

		got, err := NewRetriever(store).Retrieve(ctx, "Ceramic Floor Tiling", "Sqm", "", 2)
		require.NoError(t, err)
		assert.Len(t, got.Population, 5)
		require.Len(t, got.Top, 2)
		assert.Equal(t, "rec-a", got.Top[0].ID)
		assert.Equal(t, "rec-b", got.Top[1].ID)
	})

	t.Run("no matches yields empty context", func(t *testing.T) {
		got, err := NewRetriever(&fakeStore{}).Retrieve(ctx, "Anything", "Sqm", "", 5)
		require.NoError(t, err)
		assert.Empty(t, got.Population)
		assert.NotNil(t, got.Top)
		assert.Empty(t, got.Top)
	})

	t.Run("store failure is a data access error", func(t *testing.T) {
		cause := errors.New("connection refused")
		store := &fakeStore{err: cause}

		_, err := NewRetriever(store).Retrieve(ctx, "Paint", "Sqm", "", 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDataAccess)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("missing fields rejected before querying", func(t *testing.T) {
		store := &fakeStore{}
		r := NewRetriever(store)

		_, err := r.Retrieve(ctx, "  ", "Sqm", "", 5)
		assert.ErrorIs(t, err, common.ErrValidation)
		_, err = r.Retrieve(ctx, "Paint", "", "", 5)
		assert.ErrorIs(t, err, common.ErrValidation)
		_, err = r.Retrieve(ctx, "Paint", "Sqm", "", 0)
		assert.ErrorIs(t, err, common.ErrValidation)

		assert.Zero(t, store.calls())
	})
}
