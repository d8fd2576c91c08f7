package persistence

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusrealms/worldcore/internal/app/domain/character"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)

	require.NoError(t, resetTables(db.DB))
	t.Cleanup(func() {
		_ = resetTables(db.DB)
		_ = db.Close()
	})

	return New(db), ctx
}

func resetTables(db *sql.DB) error {
	_, err := db.Exec(`TRUNCATE zone_chunk_diffs, characters RESTART IDENTITY CASCADE`)
	return err
}

func TestSaveAndLoadCharacterRoundTrips(t *testing.T) {
	s, ctx := newTestStore(t)

	rec := &character.Record{
		WalletAddress:      "wallet-1",
		Name:               "Aerin",
		Level:              12,
		XP:                 4500,
		RaceID:             "elf",
		ClassID:            "ranger",
		ZoneID:             "town",
		X:                  15,
		Y:                  -3,
		Kills:              7,
		CompletedQuests:    []string{"quest-1", "quest-2"},
		LearnedTechniques:  []string{"power-shot"},
		LearnedProfessions: []string{"herbalism"},
	}
	require.NoError(t, s.SaveCharacter(ctx, rec))

	loaded, ok, err := s.LoadCharacter(ctx, "wallet-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec, loaded)

	rec.Level = 13
	require.NoError(t, s.SaveCharacter(ctx, rec))
	reloaded, ok, err := s.LoadCharacter(ctx, "wallet-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 13, reloaded.Level)
}

func TestLoadCharacterMissingReturnsNotOK(t *testing.T) {
	s, ctx := newTestStore(t)

	_, ok, err := s.LoadCharacter(ctx, "no-such-wallet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAndLoadChunkDiffsRoundTrips(t *testing.T) {
	s, ctx := newTestStore(t)

	diffs := []terrain.ChunkDiff{
		{
			CX:           1,
			CZ:           -2,
			TileDiffs:    []terrain.TileDiff{{LocalX: 3, LocalY: 4, Tile: terrain.Tile{Walkable: false, MovementCost: 2.5}}},
			ObjectStates: map[string]any{"gate-1": "open"},
		},
	}
	require.NoError(t, s.SaveChunkDiffs(ctx, "town", diffs))

	loaded, err := s.LoadChunkDiffs(ctx, "town")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, diffs[0].CX, loaded[0].CX)
	assert.Equal(t, diffs[0].TileDiffs, loaded[0].TileDiffs)
}

func TestLoadChunkDiffsMissingZoneReturnsEmptySlice(t *testing.T) {
	s, ctx := newTestStore(t)

	loaded, err := s.LoadChunkDiffs(ctx, "no-such-zone")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
