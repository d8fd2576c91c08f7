// Package persistence implements the Persistence Layer (C15): durable
// storage for per-wallet character records and per-zone terrain chunk
// diffs, backed by PostgreSQL (spec.md §4.10, SPEC_FULL.md S4).
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nexusrealms/worldcore/internal/app/domain/character"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
)

// Store implements character and terrain-diff persistence against
// PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store using the provided connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type characterRow struct {
	WalletAddress      string `db:"wallet_address"`
	Name               string `db:"name"`
	Level              int    `db:"level"`
	XP                 int    `db:"xp"`
	RaceID             string `db:"race_id"`
	ClassID            string `db:"class_id"`
	ZoneID             string `db:"zone_id"`
	X                  float64 `db:"x"`
	Y                  float64 `db:"y"`
	Kills              int    `db:"kills"`
	CompletedQuests    []byte `db:"completed_quests"`
	LearnedTechniques  []byte `db:"learned_techniques"`
	LearnedProfessions []byte `db:"learned_professions"`
}

// SaveCharacter upserts rec, called on logout and on the autosave sweep
// (SPEC_FULL.md S2).
func (s *Store) SaveCharacter(ctx context.Context, rec *character.Record) error {
	quests, err := json.Marshal(rec.CompletedQuests)
	if err != nil {
		return fmt.Errorf("marshal completed quests: %w", err)
	}
	techniques, err := json.Marshal(rec.LearnedTechniques)
	if err != nil {
		return fmt.Errorf("marshal learned techniques: %w", err)
	}
	professions, err := json.Marshal(rec.LearnedProfessions)
	if err != nil {
		return fmt.Errorf("marshal learned professions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters (
			wallet_address, name, level, xp, race_id, class_id, zone_id, x, y, kills,
			completed_quests, learned_techniques, learned_professions, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (wallet_address) DO UPDATE SET
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			race_id = EXCLUDED.race_id,
			class_id = EXCLUDED.class_id,
			zone_id = EXCLUDED.zone_id,
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			kills = EXCLUDED.kills,
			completed_quests = EXCLUDED.completed_quests,
			learned_techniques = EXCLUDED.learned_techniques,
			learned_professions = EXCLUDED.learned_professions,
			updated_at = now()
	`, rec.WalletAddress, rec.Name, rec.Level, rec.XP, rec.RaceID, rec.ClassID, rec.ZoneID,
		rec.X, rec.Y, rec.Kills, quests, techniques, professions)
	if err != nil {
		return fmt.Errorf("save character %s: %w", rec.WalletAddress, err)
	}
	return nil
}

// LoadCharacter fetches the persisted record for wallet, returning
// ok=false (not an error) when no record exists yet.
func (s *Store) LoadCharacter(ctx context.Context, wallet string) (*character.Record, bool, error) {
	var row characterRow
	err := s.db.GetContext(ctx, &row, `
		SELECT wallet_address, name, level, xp, race_id, class_id, zone_id, x, y, kills,
			completed_quests, learned_techniques, learned_professions
		FROM characters WHERE wallet_address = $1
	`, wallet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load character %s: %w", wallet, err)
	}

	rec := &character.Record{
		WalletAddress: row.WalletAddress,
		Name:          row.Name,
		Level:         row.Level,
		XP:            row.XP,
		RaceID:        row.RaceID,
		ClassID:       row.ClassID,
		ZoneID:        row.ZoneID,
		X:             row.X,
		Y:             row.Y,
		Kills:         row.Kills,
	}
	if err := json.Unmarshal(row.CompletedQuests, &rec.CompletedQuests); err != nil {
		return nil, false, fmt.Errorf("unmarshal completed quests: %w", err)
	}
	if err := json.Unmarshal(row.LearnedTechniques, &rec.LearnedTechniques); err != nil {
		return nil, false, fmt.Errorf("unmarshal learned techniques: %w", err)
	}
	if err := json.Unmarshal(row.LearnedProfessions, &rec.LearnedProfessions); err != nil {
		return nil, false, fmt.Errorf("unmarshal learned professions: %w", err)
	}
	return rec, true, nil
}

type chunkDiffRow struct {
	ZoneID     string `db:"zone_id"`
	ChunkDiffs []byte `db:"chunk_diffs"`
}

// SaveChunkDiffs upserts the full set of modified chunks for zoneID,
// called on the autosave sweep alongside character records.
func (s *Store) SaveChunkDiffs(ctx context.Context, zoneID string, diffs []terrain.ChunkDiff) error {
	payload, err := json.Marshal(diffs)
	if err != nil {
		return fmt.Errorf("marshal chunk diffs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO zone_chunk_diffs (zone_id, chunk_diffs, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (zone_id) DO UPDATE SET
			chunk_diffs = EXCLUDED.chunk_diffs,
			updated_at = now()
	`, zoneID, payload)
	if err != nil {
		return fmt.Errorf("save chunk diffs for zone %s: %w", zoneID, err)
	}
	return nil
}

// LoadChunkDiffs fetches the persisted chunk diffs for zoneID. A zone with
// no saved diffs yet returns an empty, non-nil slice.
func (s *Store) LoadChunkDiffs(ctx context.Context, zoneID string) ([]terrain.ChunkDiff, error) {
	var row chunkDiffRow
	err := s.db.GetContext(ctx, &row, `
		SELECT zone_id, chunk_diffs FROM zone_chunk_diffs WHERE zone_id = $1
	`, zoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return []terrain.ChunkDiff{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk diffs for zone %s: %w", zoneID, err)
	}

	var diffs []terrain.ChunkDiff
	if err := json.Unmarshal(row.ChunkDiffs, &diffs); err != nil {
		return nil, fmt.Errorf("unmarshal chunk diffs: %w", err)
	}
	return diffs, nil
}
