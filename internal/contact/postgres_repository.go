package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores contact submissions in the relational database.
type PostgresRepository struct {
	pool db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("contact: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*Submission, error) {
	id := uuid.New()
	query := `
		INSERT INTO contact_submissions (id, name, email, phone, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Phone,
		req.Message,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("contact: insert failed: %w", err)
	}

	return &Submission{
		ID:        id.String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// List returns all submissions, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Submission, error) {
	query := `
		SELECT id, name, email, phone, message, created_at
		FROM contact_submissions
		ORDER BY created_at DESC, seq DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("contact: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Submission{}
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &sub.Message, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("contact: scan failed: %w", err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contact: list failed: %w", err)
	}
	return out, nil
}

// GetByID fetches one submission.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrContactNotFound
	}
	query := `
		SELECT id, name, email, phone, message, created_at
		FROM contact_submissions
		WHERE id = $1
	`
	var sub Submission
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&sub.ID,
		&sub.Name,
		&sub.Email,
		&sub.Phone,
		&sub.Message,
		&sub.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("contact: select failed: %w", err)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}
