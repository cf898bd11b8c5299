// Package access holds the pure role-based decision rules. Nothing here
// performs I/O; callers resolve the principal and the target record first
// and ask for an allow/deny verdict.
package access

import (
	"github.com/google/uuid"

	apperrors "github.com/sahilrms/lab-master/pkg/errors"

	"github.com/sahilrms/lab-master/internal/model"
)

// CanCreateTest allows receptionists and admins to order tests.
func CanCreateTest(p model.Principal) error {
	switch p.Role {
	case model.RoleReceptionist, model.RoleAdmin:
		return nil
	}
	return apperrors.Forbidden("not authorized to create tests")
}

// CanReadTest allows staff to read any test; patients only their own.
func CanReadTest(p model.Principal, ownerPatientID uuid.UUID) error {
	switch p.Role {
	case model.RoleLabTechnician, model.RoleReceptionist, model.RoleAdmin:
		return nil
	case model.RolePatient:
		if p.ID == ownerPatientID {
			return nil
		}
		return apperrors.Forbidden("not authorized to view this test")
	}
	return apperrors.Forbidden("")
}

// CanReadSample follows the owning test's ownership.
func CanReadSample(p model.Principal, ownerPatientID uuid.UUID) error {
	if err := CanReadTest(p, ownerPatientID); err != nil {
		return apperrors.Forbidden("not authorized to view this sample")
	}
	return nil
}

// CanUpdateTest allows technicians and admins to write test status/results.
func CanUpdateTest(p model.Principal) error {
	switch p.Role {
	case model.RoleLabTechnician, model.RoleAdmin:
		return nil
	}
	return apperrors.Forbidden("not authorized to update tests")
}

// CanUpdateSample allows technicians and admins to write sample status.
func CanUpdateSample(p model.Principal) error {
	switch p.Role {
	case model.RoleLabTechnician, model.RoleAdmin:
		return nil
	}
	return apperrors.Forbidden("not authorized to update samples")
}

// CanManageTestTypes gates config create/update/delete/seed to admins.
func CanManageTestTypes(p model.Principal) error {
	if p.Role == model.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("not authorized to manage test types")
}

// CanReadTestTypes allows any authenticated caller.
func CanReadTestTypes(p model.Principal) error {
	if !p.Role.Valid() {
		return apperrors.Forbidden("")
	}
	return nil
}

// ScopeTestFilters narrows a listing to what the principal may see. A
// patient listing with no explicit patient filter is implicitly scoped to
// their own id; asking for another patient's tests is denied rather than
// silently narrowed.
func ScopeTestFilters(p model.Principal, filters *model.TestFilters) (*model.TestFilters, error) {
	if filters == nil {
		filters = &model.TestFilters{}
	}
	if p.Role != model.RolePatient {
		return filters, nil
	}
	if filters.PatientID != nil && *filters.PatientID != p.ID {
		return nil, apperrors.Forbidden("not authorized to view these tests")
	}
	own := p.ID
	scoped := *filters
	scoped.PatientID = &own
	return &scoped, nil
}
