package testtype

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := zerolog.Nop()
	svc := NewService(store.TestTypes(), store.Tests(), nil, &logger)
	return svc, store
}

func cbcRequest() *model.CreateTestTypeRequest {
	return &model.CreateTestTypeRequest{
		Name:     "Complete Blood Count",
		Code:     "cbc",
		Category: "hematology",
		TestType: model.TestTypeBlood,
		Parameters: []model.Parameter{
			{Name: "Hemoglobin", Code: "HGB", Type: model.ParameterTypeNumeric, Unit: "g/dL"},
		},
		SampleRequirements: []string{"whole_blood"},
	}
}

func TestCreateUppercasesCode(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), cbcRequest())
	require.NoError(t, err)
	assert.Equal(t, "CBC", created.Code)
	assert.True(t, created.IsActive)
}

func TestCreateDuplicateCodeCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), cbcRequest())
	require.NoError(t, err)

	dup := cbcRequest()
	dup.Code = "Cbc"
	_, err = svc.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrDuplicateCode, apperrors.CodeOf(err))
}

func TestCreateRejectsBadParameters(t *testing.T) {
	svc, _ := newTestService(t)

	req := cbcRequest()
	req.Parameters = []model.Parameter{
		{Name: "Appearance", Code: "APP", Type: model.ParameterTypeSelect},
	}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	req = cbcRequest()
	req.TestType = "invalid"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestGetByCodeNormalizes(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), cbcRequest())
	require.NoError(t, err)

	found, err := svc.GetByCode(context.Background(), "  cbc ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetByCode(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateLeavesCodeAlone(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), cbcRequest())
	require.NoError(t, err)

	newName := "CBC Panel"
	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, &model.TestTypePatch{
		Name:     &newName,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "CBC Panel", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "CBC", updated.Code)
}

func TestDeleteGuardedByReferences(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, cbcRequest())
	require.NoError(t, err)

	// A test referencing the config blocks deletion.
	configID := created.ID
	test := &model.Test{
		Base:             model.Base{ID: uuid.New()},
		PatientID:        uuid.New(),
		OrderedBy:        uuid.New(),
		TestType:         model.TestTypeBlood,
		TestTypeConfigID: &configID,
		Status:           model.TestStatusPending,
	}
	require.NoError(t, store.Tests().CreateWithSamples(ctx, test, nil))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrHasReferences, apperrors.CodeOf(err))

	// Still there.
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
}

func TestDeleteUnreferenced(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, cbcRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetByCode(ctx, "CBC")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetParametersEmptyIsNotError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := cbcRequest()
	req.Parameters = nil
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	params, err := svc.GetParameters(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = svc.GetParameters(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSeedDefaultsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Len(t, first, len(DefaultCatalog()))

	second, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)

	// Seeding skips entries that already exist, even hand-created ones.
	require.NoError(t, svc.Delete(ctx, first[0].ID))
	third, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 1)
	assert.Equal(t, first[0].Code, third[0].Code)
}

func TestDefaultCatalogCodesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, entry := range DefaultCatalog() {
		code := NormalizeCode(entry.Code)
		assert.False(t, seen[code], "duplicate catalog code %s", code)
		assert.True(t, entry.TestType.Valid(), "catalog entry %s has invalid test type", code)
		seen[code] = true
	}
	assert.True(t, seen["CBC"])
	assert.True(t, seen["URINE_RT"])
}
