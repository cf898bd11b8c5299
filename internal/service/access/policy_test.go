package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
)

func principal(role model.Role) model.Principal {
	return model.Principal{ID: uuid.New(), Role: role}
}

func TestCanCreateTest(t *testing.T) {
	assert.NoError(t, CanCreateTest(principal(model.RoleReceptionist)))
	assert.NoError(t, CanCreateTest(principal(model.RoleAdmin)))
	assert.Error(t, CanCreateTest(principal(model.RoleLabTechnician)))
	assert.Error(t, CanCreateTest(principal(model.RolePatient)))
}

func TestCanReadTest(t *testing.T) {
	owner := uuid.New()

	for _, role := range []model.Role{model.RoleAdmin, model.RoleLabTechnician, model.RoleReceptionist} {
		assert.NoError(t, CanReadTest(principal(role), owner), "staff role %s", role)
	}

	self := model.Principal{ID: owner, Role: model.RolePatient}
	assert.NoError(t, CanReadTest(self, owner))

	other := principal(model.RolePatient)
	err := CanReadTest(other, owner)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))
}

func TestCanReadSampleFollowsTestOwnership(t *testing.T) {
	owner := uuid.New()
	self := model.Principal{ID: owner, Role: model.RolePatient}
	assert.NoError(t, CanReadSample(self, owner))
	assert.Error(t, CanReadSample(principal(model.RolePatient), owner))
}

func TestCanUpdateTestAndSample(t *testing.T) {
	for _, role := range []model.Role{model.RoleLabTechnician, model.RoleAdmin} {
		assert.NoError(t, CanUpdateTest(principal(role)))
		assert.NoError(t, CanUpdateSample(principal(role)))
	}
	for _, role := range []model.Role{model.RoleReceptionist, model.RolePatient} {
		assert.Error(t, CanUpdateTest(principal(role)))
		assert.Error(t, CanUpdateSample(principal(role)))
	}
}

func TestCanManageTestTypes(t *testing.T) {
	assert.NoError(t, CanManageTestTypes(principal(model.RoleAdmin)))
	for _, role := range []model.Role{model.RoleLabTechnician, model.RoleReceptionist, model.RolePatient} {
		assert.Error(t, CanManageTestTypes(principal(role)))
	}
}

func TestCanReadTestTypes(t *testing.T) {
	for _, role := range []model.Role{model.RoleAdmin, model.RoleLabTechnician, model.RoleReceptionist, model.RolePatient} {
		assert.NoError(t, CanReadTestTypes(principal(role)))
	}
	assert.Error(t, CanReadTestTypes(model.Principal{ID: uuid.New(), Role: "unknown"}))
}

func TestScopeTestFiltersStaffUntouched(t *testing.T) {
	patientID := uuid.New()
	filters := &model.TestFilters{PatientID: &patientID}

	scoped, err := ScopeTestFilters(principal(model.RoleAdmin), filters)
	require.NoError(t, err)
	assert.Equal(t, filters, scoped)
}

func TestScopeTestFiltersPatientNarrowed(t *testing.T) {
	p := principal(model.RolePatient)

	scoped, err := ScopeTestFilters(p, nil)
	require.NoError(t, err)
	require.NotNil(t, scoped.PatientID)
	assert.Equal(t, p.ID, *scoped.PatientID)

	// Asking for someone else's tests is denied outright.
	other := uuid.New()
	_, err = ScopeTestFilters(p, &model.TestFilters{PatientID: &other})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrForbidden, apperrors.CodeOf(err))

	// An explicit self filter passes through.
	own := p.ID
	scoped, err = ScopeTestFilters(p, &model.TestFilters{PatientID: &own})
	require.NoError(t, err)
	assert.Equal(t, p.ID, *scoped.PatientID)
}
