package store

import (
	"database/sql"

	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/track"
)

// TraceStore provides access to the recorded frame, intent and dispatch
// streams of a session.
type TraceStore struct {
	db *sql.DB
}

// AddFrames records one tick's frame batch.
func (t *TraceStore) AddFrames(sessionID string, batch track.FrameBatch) error {
	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO hand_frames (session_id, tick, hand_id, label, confidence, x, y, z)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range batch.Hands {
		f := &batch.Hands[i]
		if _, err := stmt.Exec(
			sessionID, batch.Tick, f.HandID, f.Label, f.Confidence, f.X, f.Y, f.Z,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddIntent records one committed intent.
func (t *TraceStore) AddIntent(sessionID string, in track.Intent) error {
	_, err := t.db.Exec(
		`INSERT INTO intents (session_id, tick, hand_id, kind) VALUES (?, ?, ?, ?)`,
		sessionID, in.Tick, in.HandID, string(in.Kind),
	)
	return err
}

// AddDispatch records every event of one synthesized cascade.
func (t *TraceStore) AddDispatch(sessionID string, rec pointer.DispatchRecord) error {
	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO dispatches (session_id, tick, hand_id, pointer_id, event_type, x, y, target_id, frame_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range rec.Events {
		if _, err := stmt.Exec(
			sessionID, ev.Tick, rec.HandID, ev.PointerID, ev.Type, ev.X, ev.Y, ev.TargetID, ev.FrameID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Frames returns a session's recorded frames grouped back into per-tick
// batches, in tick order.
func (t *TraceStore) Frames(sessionID string) ([]track.FrameBatch, error) {
	rows, err := t.db.Query(
		`SELECT tick, hand_id, label, confidence, x, y, z
		 FROM hand_frames WHERE session_id = ? ORDER BY tick, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []track.FrameBatch
	for rows.Next() {
		var tick uint64
		var f track.HandFrame
		if err := rows.Scan(&tick, &f.HandID, &f.Label, &f.Confidence, &f.X, &f.Y, &f.Z); err != nil {
			return nil, err
		}
		if n := len(batches); n == 0 || batches[n-1].Tick != tick {
			batches = append(batches, track.FrameBatch{Tick: tick})
		}
		batches[len(batches)-1].Hands = append(batches[len(batches)-1].Hands, f)
	}
	return batches, rows.Err()
}

// DispatchCount returns the number of recorded events of one type in a
// session.
func (t *TraceStore) DispatchCount(sessionID, eventType string) (int, error) {
	var n int
	err := t.db.QueryRow(
		`SELECT COUNT(*) FROM dispatches WHERE session_id = ? AND event_type = ?`,
		sessionID, eventType,
	).Scan(&n)
	return n, err
}
