package model

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus is shared by tests and samples.
type TestStatus string

const (
	TestStatusPending    TestStatus = "pending"
	TestStatusInProgress TestStatus = "in_progress"
	TestStatusCompleted  TestStatus = "completed"
	TestStatusCancelled  TestStatus = "cancelled"
)

func (s TestStatus) Valid() bool {
	switch s {
	case TestStatusPending, TestStatusInProgress, TestStatusCompleted, TestStatusCancelled:
		return true
	}
	return false
}

// TestType is the fixed enumeration of orderable diagnostic procedures.
type TestType string

const (
	TestTypeBlood      TestType = "blood_test"
	TestTypeUrine      TestType = "urine_test"
	TestTypeXRay       TestType = "xray"
	TestTypeMRI        TestType = "mri"
	TestTypeCTScan     TestType = "ct_scan"
	TestTypeUltrasound TestType = "ultrasound"
	TestTypeStool      TestType = "stool_test"
)

func (t TestType) Valid() bool {
	switch t {
	case TestTypeBlood, TestTypeUrine, TestTypeXRay, TestTypeMRI,
		TestTypeCTScan, TestTypeUltrasound, TestTypeStool:
		return true
	}
	return false
}

// Test is the aggregate root of the lifecycle engine. Samples are owned by
// exactly one Test and never outlive it logically.
type Test struct {
	Base
	PatientID        uuid.UUID  `json:"patient_id" db:"patient_id"`
	OrderedBy        uuid.UUID  `json:"ordered_by" db:"ordered_by"`
	TestType         TestType   `json:"test_type" db:"test_type"`
	TestTypeConfigID *uuid.UUID `json:"test_type_config_id,omitempty" db:"test_type_config_id"`
	Status           TestStatus `json:"status" db:"status"`
	CollectedAt      time.Time  `json:"collected_at" db:"collected_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Notes            string     `json:"notes,omitempty" db:"notes"`
	Result           string     `json:"result,omitempty" db:"result"`
	Samples          []*Sample  `json:"samples,omitempty" db:"-"`
}

type Sample struct {
	Base
	TestID         uuid.UUID  `json:"test_id" db:"test_id"`
	SampleType     string     `json:"sample_type" db:"sample_type"`
	Status         TestStatus `json:"status" db:"status"`
	CollectionTime time.Time  `json:"collection_time" db:"collection_time"`
	Notes          string     `json:"notes,omitempty" db:"notes"`
}

type CreateTestRequest struct {
	PatientID    uuid.UUID `json:"patient_id" binding:"required"`
	TestType     TestType  `json:"test_type" binding:"required,testtype"`
	TestTypeCode string    `json:"test_type_code,omitempty"`
	SampleTypes  []string  `json:"sample_types" binding:"required,min=1,dive,required"`
	Notes        string    `json:"notes,omitempty"`
}

// TestPatch carries a partial update; nil fields are left untouched.
type TestPatch struct {
	Status *TestStatus `json:"status,omitempty" binding:"omitempty,teststatus"`
	Result *string     `json:"result,omitempty"`
	Notes  *string     `json:"notes,omitempty"`
}

// RecordResultRequest records a final result with a caller-supplied
// completion time.
type RecordResultRequest struct {
	Result      string     `json:"result" binding:"required"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type SamplePatch struct {
	Status *TestStatus `json:"status,omitempty" binding:"omitempty,teststatus"`
	Notes  *string     `json:"notes,omitempty"`
}

// TestFilters are AND-combined; nil fields impose no constraint.
type TestFilters struct {
	PatientID *uuid.UUID  `form:"patient_id"`
	Status    *TestStatus `form:"status"`
}
