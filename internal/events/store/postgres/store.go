package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"seal/internal/events"
	"seal/pkg/platform/tx"
)

// Store implements events.Store on the outbox table. Append joins the
// transaction carried by ctx.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `seq, id, event_type, source, subject, attributes, request_id, occurred_at, published_at`

func (s *Store) Append(ctx context.Context, event events.Event) (events.Event, error) {
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return events.Event{}, fmt.Errorf("marshal event attributes: %w", err)
	}
	var seq int64
	err = tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO outbox (id, event_type, source, subject, attributes, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`, event.ID, string(event.Type), event.Source, event.Subject, attrs, event.RequestID, event.OccurredAt).Scan(&seq)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert outbox entry: %w", err)
	}
	event.Seq = uint64(seq)
	return event, nil
}

func (s *Store) List(ctx context.Context, filter events.Filter) ([]events.Event, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Type != "" {
		add("event_type = $%d", string(filter.Type))
	}
	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}
	if filter.Subject != "" {
		add("subject = $%d", filter.Subject)
	}

	query := `SELECT ` + selectColumns + ` FROM outbox`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if filter.Limit > 0 {
		// newest N, returned oldest first
		args = append(args, filter.Limit)
		query = fmt.Sprintf(`SELECT * FROM (%s ORDER BY seq DESC LIMIT $%d) recent ORDER BY seq`, query, len(args))
	} else {
		query += ` ORDER BY seq`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE outbox SET published_at = $1
		WHERE id = ANY($2::uuid[]) AND published_at IS NULL
	`, at, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]events.Event, error) {
	out := make([]events.Event, 0)
	for rows.Next() {
		var (
			e         events.Event
			seq       int64
			eventType string
			attrs     []byte
			published sql.NullTime
		)
		if err := rows.Scan(&seq, &e.ID, &eventType, &e.Source, &e.Subject, &attrs, &e.RequestID, &e.OccurredAt, &published); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Seq = uint64(seq)
		e.Type = events.Type(eventType)
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, fmt.Errorf("decode event attributes: %w", err)
		}
		if published.Valid {
			t := published.Time
			e.PublishedAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
