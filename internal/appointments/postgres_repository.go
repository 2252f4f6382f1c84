package appointments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
)

const tableName = "appointments"

// PostgresRepository stores appointments in Postgres. The searchable fields
// get their own columns; the full record is kept in the details column.
type PostgresRepository struct {
	db   *sql.DB
	goqu *goqu.Database
	now  func() time.Time
}

// NewPostgresRepository initializes a repo over a database/sql handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	if db == nil {
		panic("appointments: sql db required")
	}
	return &PostgresRepository{
		db:   db,
		goqu: goqu.New("postgres", db),
		now:  time.Now,
	}
}

// Create inserts a new row and returns the stored record.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	rec := *appt
	rec.ID = uuid.New().String()
	rec.CreatedAt = r.now().UTC()

	details, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("appointments: encode details: %w", err)
	}
	concerns := rec.Concerns
	if concerns == nil {
		concerns = []string{}
	}

	query, args, err := r.goqu.Insert(tableName).Prepared(true).Rows(goqu.Record{
		"id":               rec.ID,
		"appointment_type": string(rec.AppointmentType),
		"form_variant":     string(rec.FormVariant),
		"first_name":       rec.FirstName,
		"last_name":        rec.LastName,
		"date_of_birth":    rec.DateOfBirth,
		"cell_number":      rec.ContactNumber(),
		"email":            rec.Email,
		"concerns":         pq.Array(concerns),
		"details":          string(details),
		"created_at":       rec.CreatedAt,
	}).Returning("created_at").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("appointments: build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// List returns all appointments, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Appointment, error) {
	query, args, err := r.selectColumns().
		Order(goqu.C("created_at").Desc(), goqu.C("seq").Desc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("appointments: build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	return out, nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAppointmentNotFound
	}
	query, args, err := r.selectColumns().Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("appointments: build select: %w", err)
	}

	appt, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (r *PostgresRepository) selectColumns() *goqu.SelectDataset {
	return r.goqu.From(tableName).Prepared(true).
		Select("id", "appointment_type", "form_variant", "concerns", "details", "created_at")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*Appointment, error) {
	var (
		appt     Appointment
		id       string
		typ      string
		variant  string
		concerns []string
		details  []byte
		created  time.Time
	)
	if err := row.Scan(&id, &typ, &variant, pq.Array(&concerns), &details, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("appointments: scan failed: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &appt); err != nil {
			return nil, fmt.Errorf("appointments: decode details for %s: %w", id, err)
		}
	}
	appt.ID = id
	appt.AppointmentType = flows.AppointmentType(typ)
	appt.FormVariant = flows.Variant(variant)
	if len(concerns) > 0 {
		appt.Concerns = concerns
	}
	appt.CreatedAt = created.UTC()
	return &appt, nil
}
