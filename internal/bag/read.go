package bag

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// PayloadColumns lists the message columns tried, in order, for payload bytes.
var PayloadColumns = []string{"data", "msg", "message", "payload", "raw"}

// Topics returns the run's topic table ordered by id.
//
// Returns an empty slice (not nil) if the table is empty.
func (b *Bag) Topics(ctx context.Context) ([]telemetry.Topic, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT id, name FROM topics ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []telemetry.Topic{}
	for rows.Next() {
		var t telemetry.Topic
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}

	return topics, nil
}

// Catalog resolves the run's topic ids to names.
func (b *Bag) Catalog(ctx context.Context) (telemetry.Catalog, error) {
	topics, err := b.Topics(ctx)
	if err != nil {
		return nil, err
	}
	return telemetry.NewCatalog(topics), nil
}

// Count returns per-topic message counts inside scope, keyed by topic name.
// A nil scope counts the whole run.
//
// Topic ids absent from cat, and NULL topic ids, are reported under
// telemetry.UnknownTopic.
// Ids that resolve to the same name are summed. Only topics with at
// least one message appear; an empty result means no activity.
func (b *Bag) Count(ctx context.Context, cat telemetry.Catalog, scope *telemetry.Window) (telemetry.TopicCounts, error) {
	query := "SELECT topic_id, COUNT(*) FROM messages GROUP BY topic_id"
	var args []any
	if scope != nil {
		query = "SELECT topic_id, COUNT(*) FROM messages WHERE timestamp >= ? AND timestamp < ? GROUP BY topic_id"
		args = []any{scope.Start, scope.End}
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := telemetry.TopicCounts{}
	for rows.Next() {
		var (
			id sql.NullInt64
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if n <= 0 {
			continue
		}
		name := telemetry.UnknownTopic
		if id.Valid {
			name = cat.Name(id.Int64)
		}
		counts[name] += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}

	return counts, nil
}

// PayloadColumn returns the first column of the message table that matches
// PayloadColumns, or "" if none does.
func (b *Bag) PayloadColumn(ctx context.Context) (string, error) {
	rows, err := b.db.QueryContext(ctx, "PRAGMA table_info(messages)")
	if err != nil {
		return "", fmt.Errorf("query message schema: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read message schema: %w", err)
	}

	present := map[string]bool{}
	for rows.Next() {
		// table_info: cid, name, type, notnull, dflt_value, pk
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan message schema: %w", err)
		}
		switch name := vals[1].(type) {
		case string:
			present[name] = true
		case []byte:
			present[string(name)] = true
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate message schema: %w", err)
	}

	for _, c := range PayloadColumns {
		if present[c] {
			return c, nil
		}
	}
	return "", nil
}

// Message is one payload-bearing row delivered by Stream.
// Payload is nil for SQL NULL.
type Message struct {
	Timestamp int64
	Payload   []byte
}

// Stream walks the messages of one topic inside scope in ascending timestamp
// order, calling fn for each row. A nil scope streams the whole run.
//
// column must be one of PayloadColumns. Rows are read through a single
// cursor; the result set is never materialised. Returning an error from fn
// stops the walk and that error is returned.
func (b *Bag) Stream(ctx context.Context, topicID int64, column string, scope *telemetry.Window, fn func(Message) error) error {
	if !isPayloadColumn(column) {
		return fmt.Errorf("unsupported payload column %q", column)
	}

	query := fmt.Sprintf(`SELECT timestamp, "%s" FROM messages WHERE topic_id = ? ORDER BY timestamp ASC`, column)
	args := []any{topicID}
	if scope != nil {
		query = fmt.Sprintf(`SELECT timestamp, "%s" FROM messages WHERE topic_id = ? AND timestamp >= ? AND timestamp < ? ORDER BY timestamp ASC`, column)
		args = append(args, scope.Start, scope.End)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query payloads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Timestamp, &m.Payload); err != nil {
			return fmt.Errorf("scan payload: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate payloads: %w", err)
	}

	return nil
}

func isPayloadColumn(column string) bool {
	for _, c := range PayloadColumns {
		if c == column {
			return true
		}
	}
	return false
}
