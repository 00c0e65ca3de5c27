package assistant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// ChatRepository defines data access for chat threads and per-user API keys.
type ChatRepository interface {
	ListThreads(ctx context.Context, userID string) ([]ThreadSummary, error)
	FindThread(ctx context.Context, userID, id string) (*Thread, error)
	CreateThread(ctx context.Context, t *Thread) error
	UpdateThreadMessages(ctx context.Context, userID, id string, messages []Message) error
	DeleteThread(ctx context.Context, userID, id string) error
	DeleteAllThreads(ctx context.Context, userID string) error

	GetAPIKey(ctx context.Context, userID string) (string, error)
	UpsertAPIKey(ctx context.Context, userID, key string) error
}

// chatRepository implements ChatRepository using MariaDB.
type chatRepository struct {
	db *sql.DB
}

// NewRepository creates a new chat repository.
func NewRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) ListThreads(ctx context.Context, userID string) ([]ThreadSummary, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM chat_histories
		WHERE user_id = ?
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var summaries []ThreadSummary
	for rows.Next() {
		var s ThreadSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *chatRepository) FindThread(ctx context.Context, userID, id string) (*Thread, error) {
	query := `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chat_histories
		WHERE id = ? AND user_id = ?`

	var t Thread
	var messagesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &messagesJSON, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	if err := json.Unmarshal(messagesJSON, &t.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages for thread %s: %w", t.ID, err)
	}
	return &t, nil
}

func (r *chatRepository) CreateThread(ctx context.Context, t *Thread) error {
	messagesJSON, err := json.Marshal(t.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	query := `
		INSERT INTO chat_histories (id, user_id, title, messages)
		VALUES (?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Title, messagesJSON); err != nil {
		return fmt.Errorf("inserting thread: %w", err)
	}
	return nil
}

func (r *chatRepository) UpdateThreadMessages(ctx context.Context, userID, id string, messages []Message) error {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	query := `
		UPDATE chat_histories
		SET messages = ?
		WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, messagesJSON, id, userID)
	if err != nil {
		return fmt.Errorf("updating thread: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		// Unchanged JSON also reports zero rows; confirm the thread exists.
		if _, findErr := r.FindThread(ctx, userID, id); findErr != nil {
			return findErr
		}
	}
	return nil
}

func (r *chatRepository) DeleteThread(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_histories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return apperror.NewNotFound("conversation not found")
	}
	return nil
}

func (r *chatRepository) DeleteAllThreads(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_histories WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting threads: %w", err)
	}
	return nil
}

func (r *chatRepository) GetAPIKey(ctx context.Context, userID string) (string, error) {
	var key string
	err := r.db.QueryRowContext(ctx,
		`SELECT gemini_key FROM api_keys WHERE user_id = ?`, userID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.NewNotFound("api key not set")
	}
	if err != nil {
		return "", fmt.Errorf("querying api key: %w", err)
	}
	return key, nil
}

func (r *chatRepository) UpsertAPIKey(ctx context.Context, userID, key string) error {
	query := `
		INSERT INTO api_keys (user_id, gemini_key)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE gemini_key = VALUES(gemini_key)`

	if _, err := r.db.ExecContext(ctx, query, userID, key); err != nil {
		return fmt.Errorf("storing api key: %w", err)
	}
	return nil
}
