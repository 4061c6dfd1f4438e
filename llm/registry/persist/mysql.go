package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dshills/llmcore/llm"
)

// MySQLStore is a MySQL/MariaDB-backed ConversationStore, intended for
// production deployments with multiple worker processes sharing
// conversation history.
//
// The DSN format follows go-sql-driver/mysql conventions, e.g.
// "user:pass@tcp(localhost:3306)/llmcore?parseTime=true". Callers should
// source the DSN from configuration/environment, never hardcode it.
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a MySQL-backed ConversationStore and ensures its
// schema exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	store := &MySQLStore{db: db}
	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return store, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const turnsTable = `
		CREATE TABLE IF NOT EXISTS conversation_turns (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			conversation_id VARCHAR(255) NOT NULL,
			seq INT NOT NULL,
			message LONGTEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_conversation_seq (conversation_id, seq),
			KEY idx_conversation (conversation_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	if _, err := s.db.ExecContext(ctx, turnsTable); err != nil {
		return fmt.Errorf("create conversation_turns table: %w", err)
	}
	return nil
}

func (s *MySQLStore) AppendTurn(ctx context.Context, conversationID string, message llm.ChatMessage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("store closed")
	}

	encoded, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var maxSeq sql.NullInt64
	row := tx.QueryRowContext(ctx, "SELECT MAX(seq) FROM conversation_turns WHERE conversation_id = ? FOR UPDATE", conversationID)
	if err := row.Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	seq := int(maxSeq.Int64) + 1

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO conversation_turns (conversation_id, seq, message) VALUES (?, ?, ?)",
		conversationID, seq, string(encoded),
	); err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return seq, nil
}

func (s *MySQLStore) LoadConversation(ctx context.Context, conversationID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store closed")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, message, created_at FROM conversation_turns WHERE conversation_id = ? ORDER BY seq ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			seq       int
			raw       string
			createdAt time.Time
		)
		if err := rows.Scan(&seq, &raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		var msg llm.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		turns = append(turns, Turn{Seq: seq, Message: msg, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, ErrNotFound
	}
	return turns, nil
}

func (s *MySQLStore) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store closed")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversation_turns WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
