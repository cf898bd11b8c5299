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

type sampleRepository struct {
	BaseRepository
}

func NewSampleRepository(db *sqlx.DB) repository.SampleRepository {
	return &sampleRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *sampleRepository) Create(ctx context.Context, sample *model.Sample) error {
	query := `
		INSERT INTO samples (id, test_id, sample_type, status, collection_time, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	sample.CreatedAt = now
	sample.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
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
		return fmt.Errorf("failed to create sample: %w", err)
	}
	return nil
}

func (r *sampleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	query := `SELECT * FROM samples WHERE id = $1`
	var sample model.Sample
	err := r.db.GetContext(ctx, &sample, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("sample", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	return &sample, nil
}

func (r *sampleRepository) Update(ctx context.Context, sample *model.Sample) error {
	query := `
		UPDATE samples
		SET status = $1, notes = $2, updated_at = $3
		WHERE id = $4
	`
	sample.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, sample.Status, sample.Notes, sample.UpdatedAt, sample.ID)
	if err != nil {
		return fmt.Errorf("failed to update sample: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("sample", nil)
	}
	return nil
}

func (r *sampleRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]*model.Sample, error) {
	query := `SELECT * FROM samples WHERE test_id = $1 ORDER BY created_at`
	samples := []*model.Sample{}
	if err := r.db.SelectContext(ctx, &samples, query, testID); err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	return samples, nil
}
