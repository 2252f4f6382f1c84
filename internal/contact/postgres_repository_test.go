package contact

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var contactColumns = []string{"id", "name", "email", "phone", "message", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	stamp := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO contact_submissions").
		WithArgs(pgxmock.AnyArg(), "Jane", "jane@example.com", "7165551234", "Hello").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(stamp))

	repo := NewPostgresRepository(mock)
	sub, err := repo.Create(context.Background(), &CreateRequest{
		Name: "Jane", Email: "jane@example.com", Phone: "7165551234", Message: "Hello",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uuid.Parse(sub.ID); err != nil {
		t.Errorf("expected uuid id, got %q", sub.ID)
	}
	if !sub.CreatedAt.Equal(stamp) {
		t.Errorf("expected created_at %v, got %v", stamp, sub.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, name, email, phone, message, created_at").
		WillReturnRows(pgxmock.NewRows(contactColumns).
			AddRow("b", "Second", "b@example.com", "7165550002", "Two", now).
			AddRow("a", "First", "a@example.com", "7165550001", "One", now.Add(-time.Minute)))

	list, err := NewPostgresRepository(mock).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Errorf("unexpected order: %+v", list)
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.NewString()
	mock.ExpectQuery("FROM contact_submissions").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	if _, err := repo.GetByID(context.Background(), id); err != ErrContactNotFound {
		t.Errorf("expected ErrContactNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); err != ErrContactNotFound {
		t.Errorf("expected ErrContactNotFound for malformed id, got %v", err)
	}
}
