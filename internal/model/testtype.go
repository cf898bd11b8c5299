package model

import (
	"encoding/json"

	"github.com/lib/pq"
)

// ParameterType classifies a measured value within a test type.
type ParameterType string

const (
	ParameterTypeNumeric ParameterType = "numeric"
	ParameterTypeText    ParameterType = "text"
	ParameterTypeSelect  ParameterType = "select"
	ParameterTypeBoolean ParameterType = "boolean"
)

func (p ParameterType) Valid() bool {
	switch p {
	case ParameterTypeNumeric, ParameterTypeText, ParameterTypeSelect, ParameterTypeBoolean:
		return true
	}
	return false
}

// SelectOption is a single choice for select-typed parameters.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Parameter describes one measured/observed value of a test type. The
// reference range is either a flat {min,max}, a {value} match for
// text/select parameters, or keyed by demographic ({"male": {...}}), so it
// stays a free-form JSON object.
type Parameter struct {
	Name           string         `json:"name"`
	Code           string         `json:"code"`
	Type           ParameterType  `json:"type"`
	Unit           string         `json:"unit,omitempty"`
	MinValue       *float64       `json:"min_value,omitempty"`
	MaxValue       *float64       `json:"max_value,omitempty"`
	Options        []SelectOption `json:"options,omitempty"`
	Required       bool           `json:"required"`
	DefaultValue   interface{}    `json:"default_value,omitempty"`
	Description    string         `json:"description,omitempty"`
	ReferenceRange JSONMap        `json:"reference_range,omitempty"`
}

// TestTypeConfig is a registry entry describing a kind of test. Its
// lifecycle is independent of Test/Sample instances. Codes are unique and
// stored uppercased.
type TestTypeConfig struct {
	Base
	Name               string          `json:"name" db:"name"`
	Code               string          `json:"code" db:"code"`
	Description        string          `json:"description,omitempty" db:"description"`
	Category           string          `json:"category,omitempty" db:"category"`
	TestType           TestType        `json:"test_type" db:"test_type"`
	Parameters         []Parameter     `json:"parameters" db:"-"`
	ParametersJSON     json.RawMessage `json:"-" db:"parameters"`
	SampleRequirements pq.StringArray  `json:"sample_requirements" db:"sample_requirements"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	TATHours           *int            `json:"tat_hours,omitempty" db:"tat_hours"`
}

// MarshalParameters syncs the typed parameter list into the JSON column.
func (c *TestTypeConfig) MarshalParameters() error {
	if c.Parameters == nil {
		c.Parameters = []Parameter{}
	}
	data, err := json.Marshal(c.Parameters)
	if err != nil {
		return err
	}
	c.ParametersJSON = data
	return nil
}

// UnmarshalParameters syncs the JSON column back into the typed list.
func (c *TestTypeConfig) UnmarshalParameters() error {
	c.Parameters = []Parameter{}
	if len(c.ParametersJSON) == 0 {
		return nil
	}
	return json.Unmarshal(c.ParametersJSON, &c.Parameters)
}

type CreateTestTypeRequest struct {
	Name               string      `json:"name" binding:"required,max=100"`
	Code               string      `json:"code" binding:"required,max=50"`
	Description        string      `json:"description,omitempty" binding:"max=500"`
	Category           string      `json:"category,omitempty" binding:"max=100"`
	TestType           TestType    `json:"test_type" binding:"required,testtype"`
	Parameters         []Parameter `json:"parameters" binding:"required"`
	SampleRequirements []string    `json:"sample_requirements,omitempty"`
	TATHours           *int        `json:"tat_hours,omitempty"`
	IsActive           *bool       `json:"is_active,omitempty"`
}

// TestTypePatch carries a partial update; nil fields are left untouched.
// The code is immutable after creation.
type TestTypePatch struct {
	Name               *string      `json:"name,omitempty" binding:"omitempty,max=100"`
	Description        *string      `json:"description,omitempty"`
	Category           *string      `json:"category,omitempty"`
	Parameters         *[]Parameter `json:"parameters,omitempty"`
	SampleRequirements *[]string    `json:"sample_requirements,omitempty"`
	TATHours           *int         `json:"tat_hours,omitempty"`
	IsActive           *bool        `json:"is_active,omitempty"`
}

// TestTypeFilters are AND-combined; nil fields impose no constraint.
type TestTypeFilters struct {
	Category *string `form:"category"`
	IsActive *bool   `form:"is_active"`
}
