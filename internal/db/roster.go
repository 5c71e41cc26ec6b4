package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/kyefa/internal/models"
)

// Cache — последний подтверждённый сервером список учеников, по пользователю.
type Cache struct {
	db *sql.DB
}

func (c *Cache) PingContext(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Cache) Close() error { return c.db.Close() }

// SaveRoster заменяет снимок owner целиком; порядок сохраняется.
func (c *Cache) SaveRoster(ctx context.Context, owner string, students []models.Student) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_students WHERE owner = ?`, owner); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roster_students
			(owner, id, position, first_name, surname, other_names, gender, class_level, is_active, fee_amount, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, s := range students {
		var other sql.NullString
		if s.Name.OtherNames != nil {
			other = sql.NullString{String: *s.Name.OtherNames, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			owner, s.ID.String(), i,
			s.Name.FirstName, s.Name.Surname, other,
			string(s.Gender), string(s.ClassLevel),
			s.IsActive, s.FeeAmount, string(s.PaymentStatus),
		); err != nil {
			return fmt.Errorf("student %s: %w", s.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO roster_snapshots (owner, saved_at) VALUES (?, ?)
		ON CONFLICT(owner) DO UPDATE SET saved_at = excluded.saved_at`,
		owner, time.Now().UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadRoster — снимок owner; nil, если его ещё не сохраняли.
func (c *Cache) LoadRoster(ctx context.Context, owner string) ([]models.Student, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, first_name, surname, other_names, gender, class_level, is_active, fee_amount, payment_status
		FROM roster_students WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		var (
			s                     models.Student
			id                    string
			other                 sql.NullString
			gender, class, status string
		)
		if err := rows.Scan(&id, &s.Name.FirstName, &s.Name.Surname, &other,
			&gender, &class, &s.IsActive, &s.FeeAmount, &status); err != nil {
			return nil, err
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("cached student id %q: %w", id, err)
		}
		if other.Valid {
			v := other.String
			s.Name.OtherNames = &v
		}
		s.Gender = models.Gender(gender)
		s.ClassLevel = models.ClassLevel(class)
		s.PaymentStatus = models.PaymentStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// SavedAt — время последнего снимка; ok=false, если снимка нет.
func (c *Cache) SavedAt(ctx context.Context, owner string) (time.Time, bool, error) {
	var t time.Time
	err := c.db.QueryRowContext(ctx, `SELECT saved_at FROM roster_snapshots WHERE owner = ?`, owner).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
