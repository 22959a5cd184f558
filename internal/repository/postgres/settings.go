package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

const adminKey = "admin"

// SettingsRepository is a PostgreSQL implementation of repository.SettingsRepository.
type SettingsRepository struct {
	q Querier
}

// NewSettingsRepository creates a new PostgreSQL settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{q: db}
}

// NewSettingsRepositoryWithTx creates a settings repository using a transaction.
func NewSettingsRepositoryWithTx(tx *sql.Tx) *SettingsRepository {
	return &SettingsRepository{q: tx}
}

// GetAdmin returns the admin address or ErrNotFound before initialization.
func (r *SettingsRepository) GetAdmin(ctx context.Context) (domain.Address, error) {
	var admin domain.Address
	err := r.q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, adminKey).Scan(&admin)
	if err != nil {
		return "", mapReadError(err)
	}
	return admin, nil
}

// SetAdmin stores the admin address.
func (r *SettingsRepository) SetAdmin(ctx context.Context, admin domain.Address) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ($1, $2)`, adminKey, admin)
	return mapWriteError(err)
}

// Counter returns the current value of a counter.
func (r *SettingsRepository) Counter(ctx context.Context, name string) (uint64, error) {
	var value int64
	err := r.q.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if mapReadError(err) == repository.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return uint64(value), nil
}

// Increment adds one to a counter and returns the new value. The counter row
// stays locked until the surrounding transaction ends.
func (r *SettingsRepository) Increment(ctx context.Context, name string) (uint64, error) {
	query := `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`
	var value int64
	if err := r.q.QueryRowContext(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return uint64(value), nil
}

// EventRepository is a PostgreSQL implementation of repository.EventRepository.
type EventRepository struct {
	q Querier
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{q: db}
}

// NewEventRepositoryWithTx creates an event repository using a transaction.
func NewEventRepositoryWithTx(tx *sql.Tx) *EventRepository {
	return &EventRepository{q: tx}
}

// Append stores the event and assigns its Seq.
func (r *EventRepository) Append(ctx context.Context, e *domain.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (id, type, actor, topics, data, ledger_sequence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	return r.q.QueryRowContext(ctx, query,
		e.ID,
		e.Type,
		e.Actor,
		pq.StringArray(e.Topics),
		data,
		int64(e.Ledger),
		e.CreatedAt,
	).Scan(&e.Seq)
}

// List returns up to limit events with Seq greater than after, oldest first.
func (r *EventRepository) List(ctx context.Context, after int64, limit int) ([]*domain.Event, error) {
	query := `
		SELECT seq, id, type, actor, topics, data, ledger_sequence, created_at
		FROM events WHERE seq > $1 ORDER BY seq LIMIT $2
	`
	rows, err := r.q.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		var topics pq.StringArray
		var data []byte
		var ledgerSeq int64
		if err := rows.Scan(&e.Seq, &e.ID, &e.Type, &e.Actor, &topics, &data, &ledgerSeq, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return nil, err
		}
		e.Topics = topics
		e.Ledger = uint64(ledgerSeq)
		events = append(events, &e)
	}
	return events, rows.Err()
}
