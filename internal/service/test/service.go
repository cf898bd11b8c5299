package test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"
	"github.com/sahilrms/lab-master/pkg/messaging"

	"github.com/sahilrms/lab-master/internal/email"
	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository"
)

// Service owns the Test aggregate: creation fans out to the requested
// samples, status and result writes go through here, and the derived
// completion rule is applied on behalf of the sample tracker.
type Service struct {
	repo       repository.TestRepository
	sampleRepo repository.SampleRepository
	typeRepo   repository.TestTypeRepository
	userRepo   repository.UserRepository
	emailSvc   email.Service
	broker     messaging.Broker
	logger     *zerolog.Logger
}

func NewService(
	repo repository.TestRepository,
	sampleRepo repository.SampleRepository,
	typeRepo repository.TestTypeRepository,
	userRepo repository.UserRepository,
	emailSvc email.Service,
	broker messaging.Broker,
	logger *zerolog.Logger,
) *Service {
	if broker == nil {
		broker = messaging.NewNoopBroker()
	}
	return &Service{
		repo:       repo,
		sampleRepo: sampleRepo,
		typeRepo:   typeRepo,
		userRepo:   userRepo,
		emailSvc:   emailSvc,
		broker:     broker,
		logger:     logger,
	}
}

// CreateTest creates the test (status pending, collectedAt now) and one
// pending sample per requested sample type, in order, in one transaction.
// A failure creating any sample aborts the whole operation.
func (s *Service) CreateTest(ctx context.Context, req *model.CreateTestRequest, orderedBy uuid.UUID) (*model.Test, error) {
	if !req.TestType.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown test type %q", req.TestType), nil)
	}
	if len(req.SampleTypes) == 0 {
		return nil, apperrors.Validation("at least one sample type is required", nil)
	}
	for _, st := range req.SampleTypes {
		if strings.TrimSpace(st) == "" {
			return nil, apperrors.Validation("sample types must not be empty", nil)
		}
	}

	var configID *uuid.UUID
	if req.TestTypeCode != "" {
		config, err := s.typeRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(req.TestTypeCode)))
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Validation(fmt.Sprintf("unknown test type code %q", req.TestTypeCode), err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve test type code: %w", err)
		}
		configID = &config.ID
	}

	now := time.Now()
	test := &model.Test{
		Base:             model.Base{ID: uuid.New()},
		PatientID:        req.PatientID,
		OrderedBy:        orderedBy,
		TestType:         req.TestType,
		TestTypeConfigID: configID,
		Status:           model.TestStatusPending,
		CollectedAt:      now,
		Notes:            req.Notes,
	}

	samples := make([]*model.Sample, 0, len(req.SampleTypes))
	for _, sampleType := range req.SampleTypes {
		samples = append(samples, &model.Sample{
			Base:           model.Base{ID: uuid.New()},
			TestID:         test.ID,
			SampleType:     sampleType,
			Status:         model.TestStatusPending,
			CollectionTime: now,
			Notes:          req.Notes,
		})
	}

	if err := s.repo.CreateWithSamples(ctx, test, samples); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}
	test.Samples = samples

	s.publish(ctx, messaging.ChannelTestCreated, test)
	return test, nil
}

// Get returns the test with its samples attached.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	samples, err := s.sampleRepo.ListByTest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}
	test.Samples = samples
	return test, nil
}

func (s *Service) List(ctx context.Context, filters *model.TestFilters, page model.Pagination) ([]*model.Test, error) {
	if filters != nil && filters.Status != nil && !filters.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", *filters.Status), nil)
	}
	return s.repo.List(ctx, filters, page)
}

// UpdateStatusOrResult applies a partial update. When the patch sets the
// status to completed, completedAt is stamped with the current time; any
// other change preserves the existing completedAt. Direct status writes are
// unrestricted among the four values; there is no transition guard.
func (s *Service) UpdateStatusOrResult(ctx context.Context, id uuid.UUID, patch *model.TestPatch) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	completedNow := false
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", *patch.Status), nil)
		}
		test.Status = *patch.Status
		if *patch.Status == model.TestStatusCompleted {
			now := time.Now()
			test.CompletedAt = &now
			completedNow = true
		}
	}
	if patch.Result != nil {
		test.Result = *patch.Result
	}
	if patch.Notes != nil {
		test.Notes = *patch.Notes
	}

	if err := s.repo.Update(ctx, test); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.ChannelTestUpdated, test)
	if completedNow {
		s.notifyCompleted(ctx, test)
	}
	return test, nil
}

// RecordResult marks the test completed with the caller-supplied completion
// time and stores the result. Notes are left unchanged.
func (s *Service) RecordResult(ctx context.Context, id uuid.UUID, result string, completedAt *time.Time) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	when := time.Now()
	if completedAt != nil {
		when = *completedAt
	}
	test.Status = model.TestStatusCompleted
	test.Result = result
	test.CompletedAt = &when

	if err := s.repo.Update(ctx, test); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.ChannelTestUpdated, test)
	s.notifyCompleted(ctx, test)
	return test, nil
}

// CompleteFromSamples applies the derived completion rule: the test
// transitions to completed iff every one of its samples is completed. The
// check-and-set is a single atomic store operation so two racing sample
// completions cannot both miss the transition. Returns true when the test
// was completed by this call.
func (s *Service) CompleteFromSamples(ctx context.Context, testID uuid.UUID) (bool, error) {
	done, err := s.repo.CompleteIfSamplesDone(ctx, testID, time.Now())
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}

	test, err := s.repo.Get(ctx, testID)
	if err != nil {
		s.logger.Warn().Err(err).Str("test_id", testID.String()).Msg("completed test no longer readable")
		return true, nil
	}
	s.publish(ctx, messaging.ChannelTestCompleted, test)
	s.notifyCompleted(ctx, test)
	return true, nil
}

func (s *Service) publish(ctx context.Context, channel string, test *model.Test) {
	if err := s.broker.Publish(ctx, channel, test); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("failed to publish test event")
	}
}

// notifyCompleted emails the patient. Delivery problems are logged, never
// surfaced to the caller.
func (s *Service) notifyCompleted(ctx context.Context, test *model.Test) {
	if s.emailSvc == nil || s.userRepo == nil {
		return
	}
	patient, err := s.userRepo.Get(ctx, test.PatientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", test.PatientID.String()).Msg("cannot notify patient")
		return
	}
	if err := s.emailSvc.SendTestCompleted(ctx, patient.Email, string(test.TestType), test.Result); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patient.ID.String()).Msg("failed to send completion email")
	}
}
