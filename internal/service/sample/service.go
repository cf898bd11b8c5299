package sample

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"
	"github.com/sahilrms/lab-master/pkg/messaging"

	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository"
)

// TestCompleter is the slice of the lifecycle engine the tracker needs: the
// derived rule that completes a test once all its samples are completed.
type TestCompleter interface {
	CompleteFromSamples(ctx context.Context, testID uuid.UUID) (bool, error)
}

// Service manages individual specimen records and their status transitions.
type Service struct {
	repo      repository.SampleRepository
	testRepo  repository.TestRepository
	completer TestCompleter
	broker    messaging.Broker
	logger    *zerolog.Logger
}

func NewService(
	repo repository.SampleRepository,
	testRepo repository.TestRepository,
	completer TestCompleter,
	broker messaging.Broker,
	logger *zerolog.Logger,
) *Service {
	if broker == nil {
		broker = messaging.NewNoopBroker()
	}
	return &Service{
		repo:      repo,
		testRepo:  testRepo,
		completer: completer,
		broker:    broker,
		logger:    logger,
	}
}

// CreateSample adds a specimen to an existing test. Sample types are free
// text; they are not cross-checked against the test type's sample
// requirements.
func (s *Service) CreateSample(ctx context.Context, testID uuid.UUID, sampleType, notes string) (*model.Sample, error) {
	if strings.TrimSpace(sampleType) == "" {
		return nil, apperrors.Validation("sample type is required", nil)
	}
	if _, err := s.testRepo.Get(ctx, testID); err != nil {
		return nil, err
	}

	sample := &model.Sample{
		Base:           model.Base{ID: uuid.New()},
		TestID:         testID,
		SampleType:     sampleType,
		Status:         model.TestStatusPending,
		CollectionTime: time.Now(),
		Notes:          notes,
	}
	if err := s.repo.Create(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to create sample: %w", err)
	}
	return sample, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Sample, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByTest(ctx context.Context, testID uuid.UUID) ([]*model.Sample, error) {
	return s.repo.ListByTest(ctx, testID)
}

// UpdateStatus applies a partial update, then re-evaluates the derived
// completion rule on the owning test. The rule runs after every update,
// though only a status change can newly satisfy it. Un-completing a sample
// never reverts a completed test.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, patch *model.SamplePatch) (*model.Sample, error) {
	sample, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", *patch.Status), nil)
		}
		sample.Status = *patch.Status
	}
	if patch.Notes != nil {
		sample.Notes = *patch.Notes
	}

	if err := s.repo.Update(ctx, sample); err != nil {
		return nil, err
	}

	if err := s.broker.Publish(ctx, messaging.ChannelSampleUpdated, sample); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish sample event")
	}

	if _, err := s.completer.CompleteFromSamples(ctx, sample.TestID); err != nil {
		return nil, fmt.Errorf("failed to evaluate test completion: %w", err)
	}
	return sample, nil
}
