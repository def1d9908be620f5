package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/guardpost/guardpost/internal/db"
)

// ErrNotFound is returned when a listing does not exist for the owner.
var ErrNotFound = errors.New("jobs: listing not found")

var validate = validator.New()

// Validate checks a listing before it is stored or sent to the job board.
func Validate(l Listing) error {
	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%s is invalid (%s)", e.Field(), e.Tag())
		}
		return err
	}
	return nil
}

// Store keeps the listings visitors create locally, one set per session.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create stores a new listing owned by owner.
func (s *Store) Create(ctx context.Context, owner string, l Listing) (*Listing, error) {
	if err := Validate(l); err != nil {
		return nil, err
	}
	l.ID = ulid.Make().String()
	l.Source = SourceLocal
	now := time.Now().UTC()
	l.PostedAt = now.Format("2006-01-02")

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_jobs (id, owner, title, type, location, pay, company, start_date, end_date, url, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, owner, l.Title, l.Type, l.Location, l.Pay, l.Company, l.StartDate, l.EndDate, l.URL, l.Description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}
	l = l.WithRate()
	return &l, nil
}

// List returns the owner's listings, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, type, location, pay, company, start_date, end_date, url, description, created_at
		 FROM local_jobs WHERE owner = ? ORDER BY id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Get returns one of the owner's listings.
func (s *Store) Get(ctx context.Context, owner, id string) (*Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, type, location, pay, company, start_date, end_date, url, description, created_at
		 FROM local_jobs WHERE owner = ? AND id = ?`, owner, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Delete removes one of the owner's listings.
func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM local_jobs WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(sc scanner) (Listing, error) {
	var l Listing
	var created time.Time
	err := sc.Scan(&l.ID, &l.Title, &l.Type, &l.Location, &l.Pay, &l.Company,
		&l.StartDate, &l.EndDate, &l.URL, &l.Description, &created)
	if err != nil {
		return Listing{}, fmt.Errorf("scanning listing: %w", err)
	}
	l.PostedAt = created.Format("2006-01-02")
	l.Source = SourceLocal
	return l.WithRate(), nil
}

// Reassign moves every listing owned by from to to.
func (s *Store) Reassign(ctx context.Context, from, to string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE local_jobs SET owner = ? WHERE owner = ?`, to, from); err != nil {
		return fmt.Errorf("reassigning local jobs: %w", err)
	}
	return nil
}
