// Package zonelog wraps zerolog for the per-tick hot path inside a Zone
// Runtime. zerolog's zero-allocation field builder matters at 500ms-tick
// granularity across thousands of entities, where pkg/logger's
// reflection-based logrus Fields map would add GC pressure; everything
// outside the tick loop (service startup, dispatcher errors, manager
// lifecycle) uses pkg/logger instead.
package zonelog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zone-scoped zerolog.Logger with zoneId pre-bound as context.
type Logger struct {
	zerolog.Logger
}

// Config controls the underlying zerolog writer and level.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console writer instead of JSON
}

// New builds a zone-scoped logger. zoneID is attached to every event so
// multiplexed output from many concurrent zone runtimes can be
// demultiplexed downstream.
func New(zoneID string, cfg Config) *Logger {
	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level := parseLevel(cfg.Level)
	base := zerolog.New(out).With().Timestamp().Str("zone_id", zoneID).Logger().Level(level)

	return &Logger{Logger: base}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// TickSummary logs one completed tick: how many entities were processed and
// how long the whole tick took, the per-tick equivalent of a request log line.
func (l *Logger) TickSummary(tick uint64, entityCount int, elapsed time.Duration) {
	l.Info().
		Uint64("tick", tick).
		Int("entities", entityCount).
		Dur("elapsed", elapsed).
		Msg("tick complete")
}

// CombatResolved logs one attack resolution.
func (l *Logger) CombatResolved(tick uint64, attackerID, defenderID string, damage int, defenderDied bool) {
	l.Debug().
		Uint64("tick", tick).
		Str("attacker_id", attackerID).
		Str("defender_id", defenderID).
		Int("damage", damage).
		Bool("defender_died", defenderDied).
		Msg("combat resolved")
}

// CompensationApplied logs a rollback of optimistic state after a ledger
// call failed (node charge restore, tool durability restore, un-burn mint).
func (l *Logger) CompensationApplied(tick uint64, reason, entityID string, detail map[string]any) {
	ev := l.Warn().
		Uint64("tick", tick).
		Str("reason", reason).
		Str("entity_id", entityID)
	for k, v := range detail {
		ev = ev.Interface(k, v)
	}
	ev.Msg("compensation applied")
}

// LedgerInconsistency logs a case spec.md's error-handling design treats as
// "logged, not auto-reconciled" — a ledger call whose outcome could not be
// determined before its timeout, or a partial forge/turn-in failure.
func (l *Logger) LedgerInconsistency(tick uint64, operation, walletAddress string, err error) {
	l.Error().
		Uint64("tick", tick).
		Str("operation", operation).
		Str("wallet", walletAddress).
		Err(err).
		Msg("ledger inconsistency")
}
