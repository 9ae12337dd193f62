// Package transcript keeps a local sqlite mirror of confirmed turns so the
// last conversation remains readable while the backend is degraded. The
// backend stays authoritative for session state; this is a write-behind copy
// of what the user already saw. The database is opened lazily; if opening or
// writing fails the store falls back to in-memory storage.
package transcript

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/chatadmision/admitchat/internal/chat"
	"github.com/chatadmision/admitchat/internal/logger"
)

// Entry is one mirrored message.
type Entry struct {
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// Store mirrors confirmed turns.
type Store struct {
	path string

	once    sync.Once
	db      *sql.DB
	initErr error

	mu  sync.Mutex
	mem []Entry // fallback when sqlite is unavailable
}

// NewStore creates a Store backed by the sqlite file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) init() {
	db, err := sql.Open("sqlite", "file:"+s.path+"?_busy_timeout=10000")
	if err != nil {
		s.initErr = err
		logger.L.Warn("sqlite open failed; mirroring in memory only", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT,
		role TEXT,
		content TEXT,
		created_at DATETIME
	);`); err != nil {
		s.initErr = err
		logger.L.Warn("sqlite table creation failed; mirroring in memory only", "error", err)
		return
	}
	s.db = db
}

// Record mirrors messages of a confirmed turn. Failures are logged, never
// returned: losing a mirror entry must not disturb the conversation.
func (s *Store) Record(conversationID string, msgs ...chat.Message) {
	s.once.Do(s.init)

	for _, m := range msgs {
		if s.initErr == nil && s.db != nil {
			_, err := s.db.Exec(
				`INSERT INTO turns (conversation_id, role, content, created_at) VALUES (?,?,?,?);`,
				conversationID, string(m.Role), m.Content, m.Timestamp,
			)
			if err == nil {
				continue
			}
			logger.L.Error("failed to mirror turn; keeping in memory", "error", err)
		}
		s.mu.Lock()
		s.mem = append(s.mem, Entry{
			ConversationID: conversationID,
			Role:           string(m.Role),
			Content:        m.Content,
			CreatedAt:      m.Timestamp,
		})
		s.mu.Unlock()
	}
}

// List returns the mirrored entries of a conversation in insertion order.
func (s *Store) List(conversationID string) []Entry {
	s.once.Do(s.init)

	if s.initErr == nil && s.db != nil {
		rows, err := s.db.Query(
			`SELECT conversation_id, role, content, created_at FROM turns WHERE conversation_id = ? ORDER BY id ASC;`,
			conversationID,
		)
		if err == nil {
			defer rows.Close()
			var out []Entry
			for rows.Next() {
				var e Entry
				if err := rows.Scan(&e.ConversationID, &e.Role, &e.Content, &e.CreatedAt); err == nil {
					out = append(out, e)
				}
			}
			return out
		}
		logger.L.Warn("sqlite query failed; reading memory fallback", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.mem {
		if e.ConversationID == conversationID {
			out = append(out, e)
		}
	}
	return out
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
