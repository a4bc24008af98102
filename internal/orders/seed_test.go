package orders

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIfEmpty(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedIfEmpty(ctx))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, seedCount)

	idPattern := regexp.MustCompile(`^ORD-\d{3}$`)
	seen := map[string]bool{}
	for _, o := range list {
		assert.Regexp(t, idPattern, o.ID)
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
		assert.NotEmpty(t, o.Customer)
		assert.True(t, o.Amount.IsPositive())
		assert.NotEmpty(t, o.Date)
	}

	// the whole seed goes through one transaction
	assert.Equal(t, 1, db.TransactCalls)
}

func TestSeedIfEmpty_Idempotent(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedIfEmpty(ctx))
	require.NoError(t, repo.SeedIfEmpty(ctx))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, seedCount)
	assert.Equal(t, 1, db.TransactCalls)
}

func TestSeedIfEmpty_CounterContinues(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedIfEmpty(ctx))

	o, err := repo.Create(ctx, "Acme", mustDec(t, "10.00"))
	require.NoError(t, err)
	assert.Equal(t, "ORD-101", o.ID)
}

func TestSeedIfEmpty_NoOpWithExistingOrders(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Acme", mustDec(t, "10.00"))
	require.NoError(t, err)

	require.NoError(t, repo.SeedIfEmpty(ctx))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 0, db.TransactCalls)
}
