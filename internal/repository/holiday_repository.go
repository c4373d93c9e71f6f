package repository

import (
	"context"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type holidayRepository struct {
	db *sqlx.DB
}

func NewHolidayRepository(db *sqlx.DB) HolidayRepository {
	return &holidayRepository{db: db}
}

func (r *holidayRepository) ListActive(ctx context.Context, from, to time.Time) ([]domain.Holiday, error) {
	query := `
		SELECT id, name, from_date, to_date, rescheduled_to, active
		FROM holidays
		WHERE active AND to_date >= $1 AND from_date <= $2
		ORDER BY from_date
	`

	var holidays []domain.Holiday
	err := r.db.SelectContext(ctx, &holidays, query, from, to)
	if err != nil {
		return nil, err
	}

	return holidays, nil
}
