// Package bag provides read-only access to a recorded run store.
//
// A run ("bag") is a SQLite file with at least two tables:
//   - topics (id, name)
//   - messages (topic_id, timestamp, <payload>)
//
// Timestamps are int64 nanoseconds. The payload column name varies between
// recorders and is looked up from a fixed candidate list (see PayloadColumns).
//
// # Access Rules
//
//   - The database is opened with mode=ro and query_only; nothing is ever written
//   - Several connections are kept so independent readers (the windowed
//     counter and the odometry cursor) can run concurrently
//   - All windowed queries use half-open bounds: timestamp >= start AND timestamp < end
//   - Payload streams are ordered by timestamp ASC
package bag
