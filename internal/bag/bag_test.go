package bag

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/24x6fhy/SWPtool/internal/telemetry"
	"github.com/24x6fhy/SWPtool/internal/testutil"
)

const sec = testutil.Second

// openFixture writes the fixture and opens it read-only.
func openFixture(t *testing.T, run *testutil.Run) *Bag {
	t.Helper()
	b, err := Open(run.Write(t, t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestOpen_NonExistent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestOpen_DoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db3")
	_, _ = Open(path)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "read-only open must not create the store")
}

func TestOpen_NotASQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db3")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a run store "), 256), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpen_MissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db3")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE topics (id INTEGER, name TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRunStore))
	assert.Contains(t, err.Error(), "messages")
}

func TestOpen_ReadOnly(t *testing.T) {
	b := openFixture(t, testutil.NewRun("ro").Topic(1, "/imu").Message(1, 0, nil))

	_, err := b.db.Exec("INSERT INTO topics (id, name) VALUES (2, '/x')")
	assert.Error(t, err, "writes must be rejected")
}

func TestNameAndPath(t *testing.T) {
	dir := t.TempDir()
	path := testutil.NewRun("run_2024_01").Topic(1, "/a").Write(t, dir)

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "run_2024_01", b.Name())
	assert.Equal(t, path, b.Path())
}

func TestRange(t *testing.T) {
	b := openFixture(t, testutil.NewRun("r").
		Topic(1, "/a").
		Message(1, 5*sec, nil).
		Message(1, 2*sec, nil).
		Message(1, 9*sec, nil))

	first, last, err := b.Range(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*sec, first)
	assert.Equal(t, 9*sec, last)
}

func TestRange_EmptyRun(t *testing.T) {
	b := openFixture(t, testutil.NewRun("empty").Topic(1, "/a"))

	_, _, err := b.Range(context.Background())
	assert.ErrorIs(t, err, ErrEmptyRun)

	n, err := b.MessageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCatalog(t *testing.T) {
	b := openFixture(t, testutil.NewRun("c").Topic(2, "/radar").Topic(1, "/imu"))

	topics, err := b.Topics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []telemetry.Topic{{ID: 1, Name: "/imu"}, {ID: 2, Name: "/radar"}}, topics)

	cat, err := b.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/radar", cat.Name(2))
	assert.Equal(t, telemetry.UnknownTopic, cat.Name(3))
}

func TestCount_HalfOpenWindow(t *testing.T) {
	b := openFixture(t, testutil.NewRun("w").
		Topic(1, "/lidar").
		Topic(2, "/imu").
		Message(1, 0, nil).
		Message(1, 10*sec-1, nil).
		Message(1, 10*sec, nil). // excluded: end is exclusive
		Message(2, 10*sec, nil))
	ctx := context.Background()
	cat, err := b.Catalog(ctx)
	require.NoError(t, err)

	counts, err := b.Count(ctx, cat, &telemetry.Window{Start: 0, End: 10 * sec})
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/lidar": 2}, counts, "topics without messages are absent")

	counts, err = b.Count(ctx, cat, &telemetry.Window{Start: 10 * sec, End: 20 * sec})
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/lidar": 1, "/imu": 1}, counts, "start is inclusive")

	counts, err = b.Count(ctx, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/lidar": 3, "/imu": 1}, counts)
}

func TestCount_EmptyWindow(t *testing.T) {
	b := openFixture(t, testutil.NewRun("e").Topic(1, "/a").Message(1, 0, nil))

	counts, err := b.Count(context.Background(), telemetry.Catalog{1: "/a"}, &telemetry.Window{Start: sec, End: 2 * sec})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCount_UnknownTopicPlaceholder(t *testing.T) {
	b := openFixture(t, testutil.NewRun("u").
		Topic(1, "/a").
		Message(1, 0, nil).
		Message(7, 0, nil).
		Message(8, 1, nil))

	cat, err := b.Catalog(context.Background())
	require.NoError(t, err)
	counts, err := b.Count(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/a": 1, telemetry.UnknownTopic: 2}, counts)
}

func TestCount_NullTopicID(t *testing.T) {
	b := openFixture(t, testutil.NewRun("nulltopic").
		Topic(1, "/camera/image").
		Every(1, 0, sec, 10).
		Orphan(5*sec))

	cat, err := b.Catalog(context.Background())
	require.NoError(t, err)

	counts, err := b.Count(context.Background(), cat, nil)
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/camera/image": 10, telemetry.UnknownTopic: 1}, counts)

	windowed, err := b.Count(context.Background(), cat, &telemetry.Window{Start: 5 * sec, End: 6 * sec})
	require.NoError(t, err)
	assert.Equal(t, telemetry.TopicCounts{"/camera/image": 1, telemetry.UnknownTopic: 1}, windowed)
}

func TestPayloadColumn(t *testing.T) {
	tests := []struct {
		name   string
		run    *testutil.Run
		expect string
	}{
		{"data", &testutil.Run{Name: "d"}, "data"},
		{"raw", &testutil.Run{Name: "r", PayloadColumn: "raw"}, "raw"},
		{"payload", &testutil.Run{Name: "p", PayloadColumn: "payload"}, "payload"},
		{"unknown column", &testutil.Run{Name: "x", PayloadColumn: "blob"}, ""},
		{"no column", &testutil.Run{Name: "n", NoPayload: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := openFixture(t, tt.run)
			col, err := b.PayloadColumn(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expect, col)
		})
	}
}

func TestStream_OrderedAndScoped(t *testing.T) {
	b := openFixture(t, testutil.NewRun("s").
		Topic(1, "/odom").
		Topic(2, "/imu").
		Message(1, 3*sec, "c").
		Message(1, 1*sec, "a").
		Message(2, 2*sec, "imu").
		Message(1, 2*sec, []byte("b")).
		Message(1, 4*sec, nil))

	var got []string
	var stamps []int64
	err := b.Stream(context.Background(), 1, "data", nil, func(m Message) error {
		got = append(got, string(m.Payload))
		stamps = append(stamps, m.Timestamp)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", ""}, got)
	assert.Equal(t, []int64{1 * sec, 2 * sec, 3 * sec, 4 * sec}, stamps)

	got = nil
	err = b.Stream(context.Background(), 1, "data", &telemetry.Window{Start: 2 * sec, End: 3 * sec}, func(m Message) error {
		got = append(got, string(m.Payload))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got)
}

func TestStream_NullPayload(t *testing.T) {
	b := openFixture(t, testutil.NewRun("n").Topic(1, "/odom").Message(1, 0, nil))

	err := b.Stream(context.Background(), 1, "data", nil, func(m Message) error {
		assert.Nil(t, m.Payload)
		return nil
	})
	require.NoError(t, err)
}

func TestStream_CallbackErrorStops(t *testing.T) {
	b := openFixture(t, testutil.NewRun("cb").Topic(1, "/odom").Every(1, 0, sec, 5))
	stop := errors.New("stop")

	calls := 0
	err := b.Stream(context.Background(), 1, "data", nil, func(Message) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStream_RejectsUnknownColumn(t *testing.T) {
	b := openFixture(t, testutil.NewRun("bad").Topic(1, "/odom"))

	err := b.Stream(context.Background(), 1, "id; DROP TABLE topics", nil, func(Message) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported payload column")
}

func TestDriveDuration(t *testing.T) {
	b := openFixture(t, testutil.NewRun("d").Topic(1, "/a").Message(1, 0, nil).Message(1, 7200*sec, nil))
	ctx := context.Background()

	s, err := b.DriveDuration(ctx, Seconds)
	require.NoError(t, err)
	assert.Equal(t, 7200.0, s)

	m, err := b.DriveDuration(ctx, Minutes)
	require.NoError(t, err)
	assert.Equal(t, 120.0, m)

	h, err := b.DriveDuration(ctx, Hours)
	require.NoError(t, err)
	assert.Equal(t, 2.0, h)

	_, err = b.DriveDuration(ctx, TimeUnit("days"))
	assert.Error(t, err)
}

func TestDriveDuration_EmptyRun(t *testing.T) {
	b := openFixture(t, testutil.NewRun("e").Topic(1, "/a"))
	s, err := b.DriveDuration(context.Background(), Seconds)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)
}

func TestConcurrentReaders(t *testing.T) {
	b := openFixture(t, testutil.NewRun("cr").Topic(1, "/odom").Every(1, 0, sec, 50))
	ctx := context.Background()

	// hold a streaming cursor open while counting on another connection
	err := b.Stream(ctx, 1, "data", nil, func(Message) error {
		counts, err := b.Count(ctx, telemetry.Catalog{1: "/odom"}, nil)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(50), counts["/odom"])
		return nil
	})
	require.NoError(t, err)
}
