package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// insertChunk bounds one multi-row INSERT. 500 rows at eventColumns
// bind parameters each stays far under lib/pq's 65535 placeholder cap.
const insertChunk = 500

// eventColumns is the number of columns written per event row.
const eventColumns = 13

// EventRepository handles database operations for market events
type EventRepository struct {
	db              *Database
	retentionDays   int
	compressionDays int
}

// NewEventRepository creates a new event repository. Non-positive
// horizons fall back to the production defaults.
func NewEventRepository(db *Database, retentionDays, compressionAfterDays int) *EventRepository {
	if retentionDays <= 0 {
		retentionDays = 60
	}
	if compressionAfterDays <= 0 {
		compressionAfterDays = 2
	}
	return &EventRepository{
		db:              db,
		retentionDays:   retentionDays,
		compressionDays: compressionAfterDays,
	}
}

// EnsureSchema idempotently creates the market_events hypertable with
// its indexes, compression and retention policies. The writer calls
// this on every flush tick until the first success.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	log.Println("🔄 Starting event schema initialization...")

	db := r.db.db.WithContext(ctx)

	// Schema is managed manually: GORM AutoMigrate fails on hypertables.
	// The composite (id, ts) key makes replayed inserts no-ops and is
	// required because the partition column must be part of the key.
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS market_events (
			id VARCHAR(36) NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			event_type VARCHAR(40) NOT NULL,
			rule_id VARCHAR(80) NOT NULL,
			symbol VARCHAR(12) NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			prev_value DOUBLE PRECISION,
			new_value DOUBLE PRECISION,
			delta DOUBLE PRECISION,
			delta_percent DOUBLE PRECISION,
			session VARCHAR(12),
			details JSONB,
			context JSONB,
			PRIMARY KEY (id, ts)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create market_events table: %w", err)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE").Error; err != nil {
		return fmt.Errorf("failed to create TimescaleDB extension: %w", err)
	}

	if err := db.Exec(`
		SELECT create_hypertable('market_events', 'ts',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create market_events hypertable: %w", err)
	}

	// Query-path indexes. The partial index keeps halt scans cheap even
	// when the table is dominated by price events.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_events_type_ts
		ON market_events (event_type, ts DESC)
	`)
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_events_symbol_ts
		ON market_events (symbol, ts DESC)
	`)
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_events_halts
		ON market_events (ts DESC)
		WHERE event_type IN ('HALT', 'RESUME')
	`)

	// Columnstore compression for cold chunks, then retention. Policies
	// are best-effort: inserts work without them.
	if err := db.Exec(`
		ALTER TABLE market_events SET (
			timescaledb.compress,
			timescaledb.compress_segmentby = 'event_type, symbol',
			timescaledb.compress_orderby = 'ts DESC'
		)
	`).Error; err != nil {
		log.Printf("⚠️ Warning: failed to enable compression on market_events: %v", err)
	} else {
		db.Exec(fmt.Sprintf(
			"SELECT add_compression_policy('market_events', INTERVAL '%d days', if_not_exists => TRUE)",
			r.compressionDays,
		))
	}

	db.Exec(fmt.Sprintf(
		"SELECT add_retention_policy('market_events', INTERVAL '%d days', if_not_exists => TRUE)",
		r.retentionDays,
	))

	log.Printf("📊 market_events hypertable initialized (compress after %dd, retain %dd)",
		r.compressionDays, r.retentionDays)
	return nil
}

// InsertEvents writes a batch through the raw pool in insertChunk
// slices. Returns the number of rows actually inserted; events whose
// (id, ts) already exists are skipped by the conflict clause.
func (r *EventRepository) InsertEvents(ctx context.Context, events []*market.EventRecord) (int64, error) {
	var inserted int64
	for start := 0; start < len(events); start += insertChunk {
		end := start + insertChunk
		if end > len(events) {
			end = len(events)
		}

		query, args := buildInsert(events[start:end])
		res, err := r.db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert event batch: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}
	return inserted, nil
}

// buildInsert renders one multi-row INSERT for up to insertChunk events.
func buildInsert(events []*market.EventRecord) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO market_events
		(id, ts, event_type, rule_id, symbol, price, prev_value, new_value, delta, delta_percent, session, details, context)
		VALUES `)

	args := make([]interface{}, 0, len(events)*eventColumns)
	for i, ev := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * eventColumns
		sb.WriteByte('(')
		for c := 0; c < eventColumns; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+c+1)
		}
		sb.WriteByte(')')

		args = append(args,
			ev.ID,
			ev.Timestamp,
			string(ev.EventType),
			ev.RuleID,
			ev.Symbol,
			ev.Price,
			ev.PrevValue,
			ev.NewValue,
			ev.Delta,
			ev.DeltaPercent,
			nullableString(string(ev.Session)),
			jsonColumn(ev.Details),
			jsonColumn(contextDocument(ev)),
		)
	}

	sb.WriteString(" ON CONFLICT (id, ts) DO NOTHING")
	return sb.String(), args
}

// bulkyKeys are nested quote objects already summarized by the scalar
// context fields; persisting them would roughly double row size.
var bulkyKeys = map[string]bool{"day": true, "min": true, "prevDay": true, "lastTrade": true}

// contextDocument merges the captured scalar context with the enriched
// snapshot carried for the writer. Scalars win on key collisions so the
// values queried later are the exact ones the detector saw.
func contextDocument(ev *market.EventRecord) map[string]interface{} {
	if len(ev.Snapshot) == 0 {
		return ev.Context
	}
	doc := make(map[string]interface{}, len(ev.Snapshot)+len(ev.Context))
	for k, v := range ev.Snapshot {
		if !bulkyKeys[k] {
			doc[k] = v
		}
	}
	for k, v := range ev.Context {
		doc[k] = v
	}
	return doc
}

func jsonColumn(m map[string]interface{}) interface{} {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return json.RawMessage(raw)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// RecentEvents retrieves persisted events with filters, newest first.
func (r *EventRepository) RecentEvents(ctx context.Context, f EventFilter) ([]MarketEvent, error) {
	var events []MarketEvent
	query := r.db.db.WithContext(ctx).Order("ts DESC")

	if f.Symbol != "" {
		query = query.Where("symbol = ?", f.Symbol)
	}

	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}

	if f.RuleID != "" {
		query = query.Where("rule_id = ?", f.RuleID)
	}

	if !f.Since.IsZero() {
		query = query.Where("ts >= ?", f.Since)
	}

	if !f.Until.IsZero() {
		query = query.Where("ts <= ?", f.Until)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query = query.Limit(limit)

	err := query.Find(&events).Error
	return events, err
}

// EventStats aggregates per-type counts since the given time.
func (r *EventRepository) EventStats(ctx context.Context, since time.Time) ([]EventTypeCount, error) {
	var stats []EventTypeCount
	err := r.db.db.WithContext(ctx).Raw(`
		SELECT
			event_type,
			COUNT(*) AS count,
			COUNT(DISTINCT symbol) AS symbols,
			MAX(ts) AS last_seen
		FROM market_events
		WHERE ts >= ?
		GROUP BY event_type
		ORDER BY count DESC
	`, since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate event stats: %w", err)
	}
	return stats, nil
}
