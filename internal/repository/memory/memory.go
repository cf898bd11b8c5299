// Package memory holds in-memory implementations of the repository
// interfaces. They back the unit and handler tests and are handy for local
// development without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
)

// Store is a shared in-memory record store; the per-entity repositories all
// point at the same Store so cross-entity rules (sample completion, config
// references) see one view of the data.
type Store struct {
	mu        sync.Mutex
	tests     map[uuid.UUID]*model.Test
	samples   map[uuid.UUID]*model.Sample
	testTypes map[uuid.UUID]*model.TestTypeConfig
	users     map[uuid.UUID]*model.User
	order     map[uuid.UUID]int
	seq       int
}

func NewStore() *Store {
	return &Store{
		tests:     make(map[uuid.UUID]*model.Test),
		samples:   make(map[uuid.UUID]*model.Sample),
		testTypes: make(map[uuid.UUID]*model.TestTypeConfig),
		users:     make(map[uuid.UUID]*model.User),
		order:     make(map[uuid.UUID]int),
	}
}

// nextSeq records insertion order so listings stay deterministic even when
// records land within the same clock tick. Callers must hold mu.
func (s *Store) nextSeq(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) Tests() *TestRepository         { return &TestRepository{store: s} }
func (s *Store) Samples() *SampleRepository     { return &SampleRepository{store: s} }
func (s *Store) TestTypes() *TestTypeRepository { return &TestTypeRepository{store: s} }
func (s *Store) Users() *UserRepository         { return &UserRepository{store: s} }

type TestRepository struct {
	store *Store
}

func (r *TestRepository) CreateWithSamples(_ context.Context, test *model.Test, samples []*model.Sample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t := *test
	t.Samples = nil
	r.store.tests[t.ID] = &t
	r.store.nextSeq(t.ID)
	for _, sample := range samples {
		cp := *sample
		cp.CreatedAt = time.Now()
		r.store.samples[cp.ID] = &cp
		r.store.nextSeq(cp.ID)
	}
	return nil
}

func (r *TestRepository) Get(_ context.Context, id uuid.UUID) (*model.Test, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	test, ok := r.store.tests[id]
	if !ok {
		return nil, apperrors.NotFound("test", nil)
	}
	cp := *test
	return &cp, nil
}

func (r *TestRepository) Update(_ context.Context, test *model.Test) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.tests[test.ID]; !ok {
		return apperrors.NotFound("test", nil)
	}
	cp := *test
	cp.Samples = nil
	cp.UpdatedAt = time.Now()
	r.store.tests[test.ID] = &cp
	return nil
}

func (r *TestRepository) List(_ context.Context, filters *model.TestFilters, page model.Pagination) ([]*model.Test, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := []*model.Test{}
	for _, test := range r.store.tests {
		if filters != nil {
			if filters.PatientID != nil && test.PatientID != *filters.PatientID {
				continue
			}
			if filters.Status != nil && test.Status != *filters.Status {
				continue
			}
		}
		cp := *test
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return r.store.order[matched[i].ID] < r.store.order[matched[j].ID]
	})
	return paginate(matched, page), nil
}

func (r *TestRepository) CompleteIfSamplesDone(_ context.Context, testID uuid.UUID, completedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	test, ok := r.store.tests[testID]
	if !ok || test.Status == model.TestStatusCompleted {
		return false, nil
	}

	found := false
	for _, sample := range r.store.samples {
		if sample.TestID != testID {
			continue
		}
		found = true
		if sample.Status != model.TestStatusCompleted {
			return false, nil
		}
	}
	if !found {
		return false, nil
	}

	test.Status = model.TestStatusCompleted
	test.CompletedAt = &completedAt
	test.UpdatedAt = completedAt
	return true, nil
}

func (r *TestRepository) CountByTestTypeConfig(_ context.Context, configID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	count := 0
	for _, test := range r.store.tests {
		if test.TestTypeConfigID != nil && *test.TestTypeConfigID == configID {
			count++
		}
	}
	return count, nil
}

type SampleRepository struct {
	store *Store
}

func (r *SampleRepository) Create(_ context.Context, sample *model.Sample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *sample
	cp.CreatedAt = time.Now()
	r.store.samples[cp.ID] = &cp
	r.store.nextSeq(cp.ID)
	return nil
}

func (r *SampleRepository) Get(_ context.Context, id uuid.UUID) (*model.Sample, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sample, ok := r.store.samples[id]
	if !ok {
		return nil, apperrors.NotFound("sample", nil)
	}
	cp := *sample
	return &cp, nil
}

func (r *SampleRepository) Update(_ context.Context, sample *model.Sample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.samples[sample.ID]; !ok {
		return apperrors.NotFound("sample", nil)
	}
	cp := *sample
	cp.UpdatedAt = time.Now()
	r.store.samples[sample.ID] = &cp
	return nil
}

func (r *SampleRepository) ListByTest(_ context.Context, testID uuid.UUID) ([]*model.Sample, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := []*model.Sample{}
	for _, sample := range r.store.samples {
		if sample.TestID == testID {
			cp := *sample
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return r.store.order[matched[i].ID] < r.store.order[matched[j].ID]
	})
	return matched, nil
}

type TestTypeRepository struct {
	store *Store
}

func (r *TestTypeRepository) Create(_ context.Context, config *model.TestTypeConfig) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.testTypes {
		if existing.Code == config.Code {
			return apperrors.DuplicateCode(config.Code)
		}
	}
	cp := *config
	cp.CreatedAt = time.Now()
	r.store.testTypes[cp.ID] = &cp
	return nil
}

func (r *TestTypeRepository) Get(_ context.Context, id uuid.UUID) (*model.TestTypeConfig, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	config, ok := r.store.testTypes[id]
	if !ok {
		return nil, apperrors.NotFound("test type", nil)
	}
	cp := *config
	return &cp, nil
}

func (r *TestTypeRepository) GetByCode(_ context.Context, code string) (*model.TestTypeConfig, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, config := range r.store.testTypes {
		if config.Code == code {
			cp := *config
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("test type", nil)
}

func (r *TestTypeRepository) Update(_ context.Context, config *model.TestTypeConfig) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.testTypes[config.ID]; !ok {
		return apperrors.NotFound("test type", nil)
	}
	cp := *config
	cp.UpdatedAt = time.Now()
	r.store.testTypes[config.ID] = &cp
	return nil
}

func (r *TestTypeRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.testTypes[id]; !ok {
		return apperrors.NotFound("test type", nil)
	}
	delete(r.store.testTypes, id)
	return nil
}

func (r *TestTypeRepository) List(_ context.Context, filters *model.TestTypeFilters, page model.Pagination) ([]*model.TestTypeConfig, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matched := []*model.TestTypeConfig{}
	for _, config := range r.store.testTypes {
		if filters != nil {
			if filters.Category != nil && config.Category != *filters.Category {
				continue
			}
			if filters.IsActive != nil && config.IsActive != *filters.IsActive {
				continue
			}
		}
		cp := *config
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})
	return paginate(matched, page), nil
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *user
	cp.CreatedAt = time.Now()
	r.store.users[cp.ID] = &cp
	return nil
}

func (r *UserRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; !ok {
		return apperrors.NotFound("user", nil)
	}
	cp := *user
	cp.UpdatedAt = time.Now()
	r.store.users[user.ID] = &cp
	return nil
}

func paginate[T any](items []T, page model.Pagination) []T {
	page = page.Normalize()
	if page.Skip >= len(items) {
		return []T{}
	}
	end := page.Skip + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Skip:end]
}
