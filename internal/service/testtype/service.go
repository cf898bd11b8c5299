package testtype

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"
	"github.com/sahilrms/lab-master/pkg/messaging"

	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository"
)

const (
	cacheTTL      = 15 * time.Minute
	cacheCleanup  = 1 * time.Hour
	codeKeyPrefix = "testtype:code:"
)

// Service is the test-type registry: the catalog of test definitions with
// parameter schemas, reference ranges and sample requirements. Registry
// entries live independently of Test/Sample instances.
type Service struct {
	repo     repository.TestTypeRepository
	testRepo repository.TestRepository
	broker   messaging.Broker
	cache    *gocache.Cache
	logger   *zerolog.Logger
}

func NewService(repo repository.TestTypeRepository, testRepo repository.TestRepository, broker messaging.Broker, logger *zerolog.Logger) *Service {
	if broker == nil {
		broker = messaging.NewNoopBroker()
	}
	return &Service{
		repo:     repo,
		testRepo: testRepo,
		broker:   broker,
		cache:    gocache.New(cacheTTL, cacheCleanup),
		logger:   logger,
	}
}

// NormalizeCode is the single place test-type codes are case-folded.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Create(ctx context.Context, req *model.CreateTestTypeRequest) (*model.TestTypeConfig, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	code := NormalizeCode(req.Code)
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, apperrors.DuplicateCode(code)
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	config := &model.TestTypeConfig{
		Base:               model.Base{ID: uuid.New()},
		Name:               req.Name,
		Code:               code,
		Description:        req.Description,
		Category:           req.Category,
		TestType:           req.TestType,
		Parameters:         req.Parameters,
		SampleRequirements: req.SampleRequirements,
		IsActive:           isActive,
		TATHours:           req.TATHours,
	}

	if err := s.repo.Create(ctx, config); err != nil {
		return nil, err
	}

	s.cache.Set(codeKeyPrefix+code, config, gocache.DefaultExpiration)
	return config, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.TestTypeConfig, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*model.TestTypeConfig, error) {
	code = NormalizeCode(code)
	if cached, ok := s.cache.Get(codeKeyPrefix + code); ok {
		return cached.(*model.TestTypeConfig), nil
	}

	config, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cache.Set(codeKeyPrefix+code, config, gocache.DefaultExpiration)
	return config, nil
}

func (s *Service) List(ctx context.Context, filters *model.TestTypeFilters, page model.Pagination) ([]*model.TestTypeConfig, error) {
	return s.repo.List(ctx, filters, page)
}

// Update applies only the fields set on the patch. The code is immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *model.TestTypePatch) (*model.TestTypeConfig, error) {
	config, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		config.Name = *patch.Name
	}
	if patch.Description != nil {
		config.Description = *patch.Description
	}
	if patch.Category != nil {
		config.Category = *patch.Category
	}
	if patch.Parameters != nil {
		if err := validateParameters(*patch.Parameters); err != nil {
			return nil, err
		}
		config.Parameters = *patch.Parameters
	}
	if patch.SampleRequirements != nil {
		config.SampleRequirements = *patch.SampleRequirements
	}
	if patch.TATHours != nil {
		config.TATHours = patch.TATHours
	}
	if patch.IsActive != nil {
		config.IsActive = *patch.IsActive
	}

	if err := s.repo.Update(ctx, config); err != nil {
		return nil, err
	}

	s.cache.Delete(codeKeyPrefix + config.Code)
	return config, nil
}

// Delete refuses to remove a config any test still references.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	config, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.testRepo.CountByTestTypeConfig(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count references: %w", err)
	}
	if refs > 0 {
		return apperrors.HasReferences("test type")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(codeKeyPrefix + config.Code)
	return nil
}

// GetParameters returns the parameter list; an empty list is not an error.
func (s *Service) GetParameters(ctx context.Context, id uuid.UUID) ([]model.Parameter, error) {
	config, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if config.Parameters == nil {
		return []model.Parameter{}, nil
	}
	return config.Parameters, nil
}

// SeedDefaults inserts every built-in catalog entry whose code is not
// already present. Existing entries are skipped, not updated; the skip is
// success, not error. Returns the configs actually created.
func (s *Service) SeedDefaults(ctx context.Context) ([]*model.TestTypeConfig, error) {
	created := []*model.TestTypeConfig{}
	for _, entry := range DefaultCatalog() {
		entry := entry
		code := NormalizeCode(entry.Code)
		if _, err := s.repo.GetByCode(ctx, code); err == nil {
			continue
		} else if !apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check catalog entry %s: %w", code, err)
		}

		config, err := s.Create(ctx, &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", code, err)
		}
		created = append(created, config)
	}

	if len(created) > 0 {
		codes := make([]string, 0, len(created))
		for _, c := range created {
			codes = append(codes, c.Code)
		}
		if err := s.broker.Publish(ctx, messaging.ChannelTestTypeSeeded, codes); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish seed event")
		}
	}
	return created, nil
}

func validateCreate(req *model.CreateTestTypeRequest) error {
	if !req.TestType.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown test type %q", req.TestType), nil)
	}
	if NormalizeCode(req.Code) == "" {
		return apperrors.Validation("code is required", nil)
	}
	return validateParameters(req.Parameters)
}

func validateParameters(params []model.Parameter) error {
	for _, p := range params {
		if p.Name == "" || p.Code == "" {
			return apperrors.Validation("parameter name and code are required", nil)
		}
		if !p.Type.Valid() {
			return apperrors.Validation(fmt.Sprintf("unknown parameter type %q", p.Type), nil)
		}
		if p.Type == model.ParameterTypeSelect && len(p.Options) == 0 {
			return apperrors.Validation(fmt.Sprintf("select parameter %q needs options", p.Code), nil)
		}
	}
	return nil
}
