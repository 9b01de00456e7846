package cars

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/dbx"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/google/uuid"
)

const carColumns = `id, title, make, description, price, images, factory_options, highlights,
		 key_features, specifications, status, user_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCar(s scanner) (*models.Car, error) {
	var (
		c                                        models.Car
		description                              sql.NullString
		images, options, highlights, keys, specs []byte
		status                                   string
	)

	err := s.Scan(&c.ID, &c.Title, &c.Make, &description, &c.Price, &images, &options, &highlights,
		&keys, &specs, &status, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		c.Description = &description.String
	}
	c.Status = models.Status(status)

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{images, &c.Images},
		{options, &c.FactoryOptions},
		{highlights, &c.Highlights},
		{keys, &c.KeyFeatures},
		{specs, &c.Specifications},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode json column: %w", err)
		}
	}

	c.Normalize()
	return &c, nil
}

func jsonArg(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	car.Normalize()

	args := []any{car.Title, car.Make, car.Description, car.Price}
	for _, v := range []any{car.Images, car.FactoryOptions, car.Highlights, car.KeyFeatures, car.Specifications} {
		b, err := jsonArg(v)
		if err != nil {
			return nil, err
		}
		args = append(args, b)
	}
	args = append(args, string(car.Status), car.UserID)

	query :=
		`INSERT INTO cars (title, make, description, price, images, factory_options, highlights,
		 key_features, specifications, status, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING ` + carColumns

	c, err := scanCar(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Car{}
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Car, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`

	c, err := scanCar(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	setJSON := func(column string, v any) error {
		b, err := jsonArg(v)
		if err != nil {
			return err
		}
		set(column, b)
		return nil
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Make != nil {
		set("make", *patch.Make)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	jsonCols := []struct {
		column string
		value  any
		ok     bool
	}{
		{"images", patch.Images, len(patch.Images) > 0},
		{"factory_options", patch.FactoryOptions, patch.FactoryOptions != nil},
		{"highlights", patch.Highlights, patch.Highlights != nil},
		{"key_features", patch.KeyFeatures, patch.KeyFeatures != nil},
		{"specifications", patch.Specifications, patch.Specifications != nil},
	}
	for _, c := range jsonCols {
		if !c.ok {
			continue
		}
		if err := setJSON(c.column, c.value); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE cars SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), carColumns)

	c, err := scanCar(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
