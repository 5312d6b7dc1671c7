// Package database persists detected market events to TimescaleDB.
//
// This package includes:
//   - Connection management using GORM over a shared lib/pq pool
//   - Manual schema management for the market_events hypertable
//   - Batched idempotent inserts for the event writer
//   - Filtered history queries for the API layer
//
// Key Concepts:
//   - One-day hypertable chunks partitioned by event timestamp
//   - Columnstore compression for chunks past the compression horizon
//   - Automatic retention policy dropping chunks past 60 days
//   - Composite primary key (id, ts) for hypertable compatibility;
//     re-inserting an already-persisted event is a no-op
//   - JSONB details/context columns so historical queries can filter on
//     any captured field without schema migrations
package database

import (
	"encoding/json"
	"time"
)

// MarketEvent is one persisted detection. The table itself is created
// manually in EnsureSchema because GORM auto-migration does not handle
// hypertables; these tags only drive query mapping and JSON shape.
type MarketEvent struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	Ts           time.Time       `gorm:"primaryKey;column:ts" json:"ts"`
	EventType    string          `gorm:"size:40;not null" json:"event_type"`
	RuleID       string          `gorm:"size:80;not null" json:"rule_id"`
	Symbol       string          `gorm:"size:12;not null" json:"symbol"`
	Price        float64         `json:"price"`
	PrevValue    *float64        `json:"prev_value,omitempty"`
	NewValue     *float64        `json:"new_value,omitempty"`
	Delta        *float64        `json:"delta,omitempty"`
	DeltaPercent *float64        `json:"delta_percent,omitempty"`
	Session      string          `gorm:"size:12" json:"session,omitempty"`
	Details      json.RawMessage `gorm:"type:jsonb" json:"details,omitempty"`
	Context      json.RawMessage `gorm:"type:jsonb" json:"context,omitempty"`
}

// TableName specifies the table name for MarketEvent
func (MarketEvent) TableName() string {
	return "market_events"
}

// EventFilter narrows history queries. Zero fields are ignored.
type EventFilter struct {
	Symbol    string
	EventType string
	RuleID    string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// EventTypeCount is one row of the per-type stats aggregate.
type EventTypeCount struct {
	EventType string    `json:"event_type"`
	Count     int64     `json:"count"`
	Symbols   int64     `json:"symbols"`
	LastSeen  time.Time `json:"last_seen"`
}
