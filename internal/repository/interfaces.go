package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sahilrms/lab-master/internal/model"
)

// All repository interfaces in one file
type (
	// TestRepository persists tests and their owned samples. CreateWithSamples
	// writes the test and every sample in a single transaction; a failure on
	// any sample aborts the whole operation.
	TestRepository interface {
		CreateWithSamples(ctx context.Context, test *model.Test, samples []*model.Sample) error
		Get(ctx context.Context, id uuid.UUID) (*model.Test, error)
		Update(ctx context.Context, test *model.Test) error
		List(ctx context.Context, filters *model.TestFilters, page model.Pagination) ([]*model.Test, error)
		// CompleteIfSamplesDone atomically marks the test completed iff every
		// one of its samples is completed. Returns true when the transition
		// happened in this call. Must be a single compare-and-set against the
		// store, not a read-then-write.
		CompleteIfSamplesDone(ctx context.Context, testID uuid.UUID, completedAt time.Time) (bool, error)
		CountByTestTypeConfig(ctx context.Context, configID uuid.UUID) (int, error)
	}

	SampleRepository interface {
		Create(ctx context.Context, sample *model.Sample) error
		Get(ctx context.Context, id uuid.UUID) (*model.Sample, error)
		Update(ctx context.Context, sample *model.Sample) error
		ListByTest(ctx context.Context, testID uuid.UUID) ([]*model.Sample, error)
	}

	// TestTypeRepository stores registry entries. Codes are compared and
	// stored uppercased by the service; the repository treats them opaquely.
	TestTypeRepository interface {
		Create(ctx context.Context, config *model.TestTypeConfig) error
		Get(ctx context.Context, id uuid.UUID) (*model.TestTypeConfig, error)
		GetByCode(ctx context.Context, code string) (*model.TestTypeConfig, error)
		Update(ctx context.Context, config *model.TestTypeConfig) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.TestTypeFilters, page model.Pagination) ([]*model.TestTypeConfig, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}
)
