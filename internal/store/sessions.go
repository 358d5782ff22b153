package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"clausecompass/internal/xerrors"
)

// CreateSession inserts a new ChatSession.
func (s *Store) CreateSession(ctx context.Context, sess *ChatSession) error {
	docs, _ := json.Marshal(sess.SelectedDocuments)
	_, err := s.db.Exec(ctx, `
		INSERT INTO chat_sessions (id, title, selected_documents, created_at, last_activity, archived)
		VALUES ($1,$2,$3,$4,$4,$5)
	`, sess.ID, sess.Title, docs, sess.CreatedAt, sess.Archived)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.CreateSession", err)
	}
	return nil
}

// GetSession fetches a ChatSession by id.
func (s *Store) GetSession(ctx context.Context, id string) (*ChatSession, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, selected_documents, created_at, last_activity, archived, summary
		FROM chat_sessions WHERE id = $1
	`, id)
	var sess ChatSession
	var docsRaw []byte
	if err := row.Scan(&sess.ID, &sess.Title, &docsRaw, &sess.CreatedAt, &sess.LastActivity, &sess.Archived, &sess.Summary); err != nil {
		if err == pgx.ErrNoRows {
			return nil, xerrors.New(xerrors.NotFound, "store.GetSession", err)
		}
		return nil, xerrors.New(xerrors.DependencyFailure, "store.GetSession", err)
	}
	_ = json.Unmarshal(docsRaw, &sess.SelectedDocuments)
	return &sess, nil
}

// ArchiveSession soft-deletes a session (spec.md §4.12: archive and delete
// are distinct operations).
func (s *Store) ArchiveSession(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE chat_sessions SET archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.ArchiveSession", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.NotFound, "store.ArchiveSession", nil)
	}
	return nil
}

// UpdateSessionSummary sets a session's rolling conversation summary,
// written by C12 when its message log exceeds the retained window.
func (s *Store) UpdateSessionSummary(ctx context.Context, id string, summary string) error {
	tag, err := s.db.Exec(ctx, `UPDATE chat_sessions SET summary = $1 WHERE id = $2`, summary, id)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.UpdateSessionSummary", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.NotFound, "store.UpdateSessionSummary", nil)
	}
	return nil
}

// DeleteSession hard-deletes a session; message deletion cascades.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.DeleteSession", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.New(xerrors.NotFound, "store.DeleteSession", nil)
	}
	return nil
}

// AppendMessage appends one message to a session's log and bumps
// last_activity. Callers (internal/memory) are responsible for serializing
// concurrent appends to the same session-id per spec.md §5.
func (s *Store) AppendMessage(ctx context.Context, msg *Message) error {
	sources, _ := json.Marshal(msg.Sources)
	metadata, _ := json.Marshal(msg.Metadata)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.AppendMessage", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO messages (id, session_id, role, content, sources, metadata, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, sources, metadata, msg.Timestamp); err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.AppendMessage", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET last_activity = $1 WHERE id = $2`, msg.Timestamp, msg.SessionID); err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.AppendMessage", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return xerrors.New(xerrors.DependencyFailure, "store.AppendMessage", err)
	}
	return nil
}

// GetMessages returns the most recent `limit` messages of a session in
// chronological order (spec.md §4.12).
func (s *Store) GetMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, role, content, sources, metadata, timestamp
		FROM messages WHERE session_id = $1 ORDER BY timestamp DESC LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.GetMessages", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		var sourcesRaw, metaRaw []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &sourcesRaw, &metaRaw, &m.Timestamp); err != nil {
			return nil, xerrors.New(xerrors.DependencyFailure, "store.GetMessages", err)
		}
		_ = json.Unmarshal(sourcesRaw, &m.Sources)
		_ = json.Unmarshal(metaRaw, &m.Metadata)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.New(xerrors.DependencyFailure, "store.GetMessages", err)
	}

	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// MessageCount returns the total number of messages in a session, used by
// C12 to decide whether a rolling summary is needed.
func (s *Store) MessageCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM messages WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, xerrors.New(xerrors.DependencyFailure, "store.MessageCount", err)
	}
	return n, nil
}
