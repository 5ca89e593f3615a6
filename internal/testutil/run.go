// Package testutil builds synthetic run stores for tests.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
)

// Second is one second in store timestamp units.
const Second int64 = 1_000_000_000

// Message is one row of a fixture's message table.
type Message struct {
	TopicID   int64
	NullTopic bool // store topic_id as NULL
	Timestamp int64
	Payload   any // string, []byte or nil
}

// Run describes a fixture store.
type Run struct {
	Name string

	// PayloadColumn names the message payload column. Empty means "data".
	// NoPayload omits the column entirely.
	PayloadColumn string
	NoPayload     bool

	Topics   []telemetry.Topic
	Messages []Message
}

// NewRun starts a fixture with the given name.
func NewRun(name string) *Run {
	return &Run{Name: name}
}

// Topic adds a topic.
func (r *Run) Topic(id int64, name string) *Run {
	r.Topics = append(r.Topics, telemetry.Topic{ID: id, Name: name})
	return r
}

// Message adds one message.
func (r *Run) Message(topicID, ts int64, payload any) *Run {
	r.Messages = append(r.Messages, Message{TopicID: topicID, Timestamp: ts, Payload: payload})
	return r
}

// Orphan adds one payload-less message whose topic_id is NULL.
func (r *Run) Orphan(ts int64) *Run {
	r.Messages = append(r.Messages, Message{NullTopic: true, Timestamp: ts})
	return r
}

// Every adds n payload-less messages on topicID at start, start+step, ...
func (r *Run) Every(topicID, start, step int64, n int) *Run {
	for i := 0; i < n; i++ {
		r.Message(topicID, start+int64(i)*step, nil)
	}
	return r
}

// Path adds odometry messages at the given timestamps, one per position,
// encoded as "x: <x>, y: <y>" text payloads.
func (r *Run) Path(topicID int64, ts []int64, xy [][2]float64) *Run {
	for i := range ts {
		r.Message(topicID, ts[i], fmt.Sprintf("x: %v, y: %v", xy[i][0], xy[i][1]))
	}
	return r
}

// Write creates the store as <dir>/<name>.db3 and returns its path.
func (r *Run) Write(t testing.TB, dir string) string {
	t.Helper()

	path := filepath.Join(dir, r.Name+".db3")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture %s: %v", path, err)
	}
	defer db.Close()

	column := r.PayloadColumn
	if column == "" {
		column = "data"
	}
	messagesDDL := fmt.Sprintf(
		`CREATE TABLE messages (id INTEGER PRIMARY KEY, topic_id INTEGER, timestamp INTEGER NOT NULL, "%s" BLOB)`,
		column)
	if r.NoPayload {
		messagesDDL = `CREATE TABLE messages (id INTEGER PRIMARY KEY, topic_id INTEGER, timestamp INTEGER NOT NULL)`
	}

	stmts := []string{
		`CREATE TABLE topics (id INTEGER PRIMARY KEY, name TEXT NOT NULL, type TEXT NOT NULL DEFAULT '')`,
		messagesDDL,
		`CREATE INDEX timestamp_idx ON messages (timestamp ASC)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("create fixture schema: %v", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin fixture tx: %v", err)
	}
	for _, tp := range r.Topics {
		if _, err := tx.Exec(`INSERT INTO topics (id, name) VALUES (?, ?)`, tp.ID, tp.Name); err != nil {
			t.Fatalf("insert topic %q: %v", tp.Name, err)
		}
	}
	for _, m := range r.Messages {
		var topicID any = m.TopicID
		if m.NullTopic {
			topicID = nil
		}
		if r.NoPayload {
			_, err = tx.Exec(`INSERT INTO messages (topic_id, timestamp) VALUES (?, ?)`, topicID, m.Timestamp)
		} else {
			_, err = tx.Exec(fmt.Sprintf(`INSERT INTO messages (topic_id, timestamp, "%s") VALUES (?, ?, ?)`, column),
				topicID, m.Timestamp, m.Payload)
		}
		if err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit fixture: %v", err)
	}

	return path
}
