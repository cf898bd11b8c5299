package test

import (
	"context"
	"testing"
	"time"

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
	svc := NewService(store.Tests(), store.Samples(), store.TestTypes(), store.Users(), nil, nil, &logger)
	return svc, store
}

func TestCreateTestFansOutSamples(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	patientID := uuid.New()
	orderedBy := uuid.New()
	created, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   patientID,
		TestType:    model.TestTypeBlood,
		SampleTypes: []string{"whole_blood", "serum", "plasma"},
		Notes:       "fasting",
	}, orderedBy)
	require.NoError(t, err)

	assert.Equal(t, patientID, created.PatientID)
	assert.Equal(t, orderedBy, created.OrderedBy)
	assert.Equal(t, model.TestStatusPending, created.Status)
	assert.Nil(t, created.CompletedAt)
	assert.WithinDuration(t, time.Now(), created.CollectedAt, time.Second)

	require.Len(t, created.Samples, 3)
	for i, want := range []string{"whole_blood", "serum", "plasma"} {
		assert.Equal(t, want, created.Samples[i].SampleType)
		assert.Equal(t, model.TestStatusPending, created.Samples[i].Status)
		assert.Equal(t, created.ID, created.Samples[i].TestID)
		assert.Equal(t, created.CollectedAt, created.Samples[i].CollectionTime)
	}

	// Reading back preserves sample creation order.
	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Samples, 3)
	assert.Equal(t, "whole_blood", fetched.Samples[0].SampleType)
	assert.Equal(t, "plasma", fetched.Samples[2].SampleType)
}

func TestCreateTestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   uuid.New(),
		TestType:    "gene_panel",
		SampleTypes: []string{"blood"},
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID: uuid.New(),
		TestType:  model.TestTypeBlood,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   uuid.New(),
		TestType:    model.TestTypeBlood,
		SampleTypes: []string{"blood", "  "},
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateTestResolvesTypeCode(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	config := &model.TestTypeConfig{
		Base:     model.Base{ID: uuid.New()},
		Name:     "Complete Blood Count",
		Code:     "CBC",
		TestType: model.TestTypeBlood,
		IsActive: true,
	}
	require.NoError(t, store.TestTypes().Create(ctx, config))

	created, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:    uuid.New(),
		TestType:     model.TestTypeBlood,
		TestTypeCode: "cbc",
		SampleTypes:  []string{"whole_blood"},
	}, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, created.TestTypeConfigID)
	assert.Equal(t, config.ID, *created.TestTypeConfigID)

	_, err = svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:    uuid.New(),
		TestType:     model.TestTypeBlood,
		TestTypeCode: "NOPE",
		SampleTypes:  []string{"whole_blood"},
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestUpdateStatusStampsCompletedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   uuid.New(),
		TestType:    model.TestTypeXRay,
		SampleTypes: []string{"imaging"},
	}, uuid.New())
	require.NoError(t, err)

	inProgress := model.TestStatusInProgress
	updated, err := svc.UpdateStatusOrResult(ctx, created.ID, &model.TestPatch{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, model.TestStatusInProgress, updated.Status)
	assert.Nil(t, updated.CompletedAt)

	completed := model.TestStatusCompleted
	result := "no abnormality detected"
	updated, err = svc.UpdateStatusOrResult(ctx, created.ID, &model.TestPatch{Status: &completed, Result: &result})
	require.NoError(t, err)
	assert.Equal(t, model.TestStatusCompleted, updated.Status)
	assert.Equal(t, result, updated.Result)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, time.Now(), *updated.CompletedAt, time.Second)

	// A later non-status patch leaves completedAt alone.
	stamp := *updated.CompletedAt
	notes := "reviewed"
	updated, err = svc.UpdateStatusOrResult(ctx, created.ID, &model.TestPatch{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, stamp, *updated.CompletedAt)

	bad := model.TestStatus("done")
	_, err = svc.UpdateStatusOrResult(ctx, created.ID, &model.TestPatch{Status: &bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestRecordResult(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   uuid.New(),
		TestType:    model.TestTypeUrine,
		SampleTypes: []string{"urine"},
		Notes:       "morning sample",
	}, uuid.New())
	require.NoError(t, err)

	when := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	updated, err := svc.RecordResult(ctx, created.ID, "all values in range", &when)
	require.NoError(t, err)
	assert.Equal(t, model.TestStatusCompleted, updated.Status)
	assert.Equal(t, "all values in range", updated.Result)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, when, *updated.CompletedAt)
	assert.Equal(t, "morning sample", updated.Notes)

	_, err = svc.RecordResult(ctx, uuid.New(), "x", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompleteFromSamples(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, &model.CreateTestRequest{
		PatientID:   uuid.New(),
		TestType:    model.TestTypeBlood,
		SampleTypes: []string{"whole_blood", "serum"},
	}, uuid.New())
	require.NoError(t, err)

	// One of two samples done: no transition.
	samples, err := store.Samples().ListByTest(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	samples[0].Status = model.TestStatusCompleted
	require.NoError(t, store.Samples().Update(ctx, samples[0]))

	done, err := svc.CompleteFromSamples(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, done)

	// Both done: transition exactly once.
	samples[1].Status = model.TestStatusCompleted
	require.NoError(t, store.Samples().Update(ctx, samples[1]))

	done, err = svc.CompleteFromSamples(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = svc.CompleteFromSamples(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, done, "already-completed test must not transition again")

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TestStatusCompleted, fetched.Status)
	require.NotNil(t, fetched.CompletedAt)
	assert.WithinDuration(t, time.Now(), *fetched.CompletedAt, time.Second)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	patientA := uuid.New()
	patientB := uuid.New()
	for _, pid := range []uuid.UUID{patientA, patientA, patientB} {
		_, err := svc.CreateTest(ctx, &model.CreateTestRequest{
			PatientID:   pid,
			TestType:    model.TestTypeBlood,
			SampleTypes: []string{"whole_blood"},
		}, uuid.New())
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, nil, model.Pagination{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.List(ctx, &model.TestFilters{PatientID: &patientA}, model.Pagination{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	bad := model.TestStatus("done")
	_, err = svc.List(ctx, &model.TestFilters{Status: &bad}, model.Pagination{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	page, err := svc.List(ctx, nil, model.Pagination{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
