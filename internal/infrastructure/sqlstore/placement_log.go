package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
)

// PlacementLog writes through the pool, never through a unit of work, so that
// entries survive a rolled back placement.
type PlacementLog struct {
	db queryer
}

var _ placement.Log = (*PlacementLog)(nil)

func NewPlacementLog(s *Store) *PlacementLog {
	return &PlacementLog{db: s.db}
}

func (l *PlacementLog) Append(ctx context.Context, e placement.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	payload, err := json.Marshal(errs)
	if err != nil {
		return repoErr("encode placement errors", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO placement_log (user_id, payment_reference, order_id, status, step, amount, error_messages, trace_id, span_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.PaymentReference, e.OrderID, string(e.Status), e.Step, e.Amount, string(payload),
		e.TraceID, e.SpanID, formatTime(e.CreatedAt),
	)
	if err != nil {
		return repoErr("append placement log", err)
	}
	return nil
}

func (l *PlacementLog) ListByReference(ctx context.Context, reference string) ([]placement.Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, payment_reference, order_id, status, step, amount, error_messages, trace_id, span_id, created_at
		 FROM placement_log WHERE payment_reference = ? ORDER BY id`, reference)
	if err != nil {
		return nil, repoErr("list placement log", err)
	}
	defer rows.Close()

	var out []placement.Entry
	for rows.Next() {
		var (
			e               placement.Entry
			status, payload string
			created         string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.PaymentReference, &e.OrderID, &status, &e.Step,
			&e.Amount, &payload, &e.TraceID, &e.SpanID, &created); err != nil {
			return nil, repoErr("scan placement log", err)
		}
		e.Status = placement.Status(status)
		if err := json.Unmarshal([]byte(payload), &e.Errors); err != nil {
			return nil, repoErr("decode placement errors", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, repoErr("scan placement log", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, repoErr("list placement log", err)
	}
	return out, nil
}
