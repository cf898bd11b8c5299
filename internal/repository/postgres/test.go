package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository"
)

type testRepository struct {
	BaseRepository
}

func NewTestRepository(db *sqlx.DB) repository.TestRepository {
	return &testRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *testRepository) CreateWithSamples(ctx context.Context, test *model.Test, samples []*model.Sample) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO tests (id, patient_id, ordered_by, test_type, test_type_config_id,
				status, collected_at, notes, result, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		now := time.Now()
		test.CreatedAt = now
		test.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			test.ID,
			test.PatientID,
			test.OrderedBy,
			test.TestType,
			test.TestTypeConfigID,
			test.Status,
			test.CollectedAt,
			test.Notes,
			test.Result,
			test.CreatedAt,
			test.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}

		sampleQuery := `
			INSERT INTO samples (id, test_id, sample_type, status, collection_time, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, sample := range samples {
			sample.CreatedAt = now
			sample.UpdatedAt = now
			_, err := tx.ExecContext(ctx, sampleQuery,
				sample.ID,
				sample.TestID,
				sample.SampleType,
				sample.Status,
				sample.CollectionTime,
				sample.Notes,
				sample.CreatedAt,
				sample.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create sample %q: %w", sample.SampleType, err)
			}
		}
		return nil
	})
}

func (r *testRepository) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	query := `SELECT * FROM tests WHERE id = $1`
	var test model.Test
	err := r.db.GetContext(ctx, &test, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("test", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

func (r *testRepository) Update(ctx context.Context, test *model.Test) error {
	query := `
		UPDATE tests
		SET status = $1, result = $2, notes = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
	`
	test.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		test.Status,
		test.Result,
		test.Notes,
		test.CompletedAt,
		test.UpdatedAt,
		test.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("test", nil)
	}
	return nil
}

func (r *testRepository) List(ctx context.Context, filters *model.TestFilters, page model.Pagination) ([]*model.Test, error) {
	query := `SELECT * FROM tests WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.PatientID != nil {
			args = append(args, *filters.PatientID)
			query += fmt.Sprintf(" AND patient_id = $%d", len(args))
		}
		if filters.Status != nil {
			args = append(args, *filters.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	page = page.Normalize()
	args = append(args, page.Limit)
	query += fmt.Sprintf(" ORDER BY created_at LIMIT $%d", len(args))
	args = append(args, page.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	tests := []*model.Test{}
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

// CompleteIfSamplesDone is a single compare-and-set statement so that two
// concurrent sample completions cannot both miss the transition.
func (r *testRepository) CompleteIfSamplesDone(ctx context.Context, testID uuid.UUID, completedAt time.Time) (bool, error) {
	query := `
		UPDATE tests
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3
		  AND status <> $1
		  AND EXISTS (SELECT 1 FROM samples WHERE test_id = $3)
		  AND NOT EXISTS (
			SELECT 1 FROM samples WHERE test_id = $3 AND status <> $1
		  )
	`
	res, err := r.db.ExecContext(ctx, query, model.TestStatusCompleted, completedAt, testID)
	if err != nil {
		return false, fmt.Errorf("failed to complete test: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *testRepository) CountByTestTypeConfig(ctx context.Context, configID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tests WHERE test_type_config_id = $1`, configID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tests for config: %w", err)
	}
	return count, nil
}
