package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository"
)

type testTypeRepository struct {
	BaseRepository
}

func NewTestTypeRepository(db *sqlx.DB) repository.TestTypeRepository {
	return &testTypeRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *testTypeRepository) Create(ctx context.Context, config *model.TestTypeConfig) error {
	if err := config.MarshalParameters(); err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	query := `
		INSERT INTO test_types (id, name, code, description, category, test_type,
			parameters, sample_requirements, is_active, tat_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	config.CreatedAt = now
	config.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		config.ID,
		config.Name,
		config.Code,
		config.Description,
		config.Category,
		config.TestType,
		config.ParametersJSON,
		config.SampleRequirements,
		config.IsActive,
		config.TATHours,
		config.CreatedAt,
		config.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return apperrors.DuplicateCode(config.Code)
	}
	if err != nil {
		return fmt.Errorf("failed to create test type: %w", err)
	}
	return nil
}

func (r *testTypeRepository) Get(ctx context.Context, id uuid.UUID) (*model.TestTypeConfig, error) {
	return r.getOne(ctx, `SELECT * FROM test_types WHERE id = $1`, id)
}

func (r *testTypeRepository) GetByCode(ctx context.Context, code string) (*model.TestTypeConfig, error) {
	return r.getOne(ctx, `SELECT * FROM test_types WHERE code = $1`, code)
}

func (r *testTypeRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.TestTypeConfig, error) {
	var config model.TestTypeConfig
	err := r.db.GetContext(ctx, &config, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("test type", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test type: %w", err)
	}
	if err := config.UnmarshalParameters(); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	return &config, nil
}

func (r *testTypeRepository) Update(ctx context.Context, config *model.TestTypeConfig) error {
	if err := config.MarshalParameters(); err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	query := `
		UPDATE test_types
		SET name = $1, description = $2, category = $3, parameters = $4,
			sample_requirements = $5, is_active = $6, tat_hours = $7, updated_at = $8
		WHERE id = $9
	`
	config.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		config.Name,
		config.Description,
		config.Category,
		config.ParametersJSON,
		config.SampleRequirements,
		config.IsActive,
		config.TATHours,
		config.UpdatedAt,
		config.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update test type: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("test type", nil)
	}
	return nil
}

func (r *testTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM test_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete test type: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("test type", nil)
	}
	return nil
}

func (r *testTypeRepository) List(ctx context.Context, filters *model.TestTypeFilters, page model.Pagination) ([]*model.TestTypeConfig, error) {
	query := `SELECT * FROM test_types WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.Category != nil {
			args = append(args, *filters.Category)
			query += fmt.Sprintf(" AND category = $%d", len(args))
		}
		if filters.IsActive != nil {
			args = append(args, *filters.IsActive)
			query += fmt.Sprintf(" AND is_active = $%d", len(args))
		}
	}

	page = page.Normalize()
	args = append(args, page.Limit)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))
	args = append(args, page.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	configs := []*model.TestTypeConfig{}
	if err := r.db.SelectContext(ctx, &configs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list test types: %w", err)
	}
	for _, config := range configs {
		if err := config.UnmarshalParameters(); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters for %s: %w", config.Code, err)
		}
	}
	return configs, nil
}
