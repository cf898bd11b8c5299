package testtype

import (
	"strconv"

	"github.com/sahilrms/lab-master/internal/model"
)

// DefaultCatalog is the built-in set of test-type definitions used by
// SeedDefaults. Entries already present in the registry (by code) are
// skipped at seed time.
func DefaultCatalog() []model.CreateTestTypeRequest {
	return []model.CreateTestTypeRequest{
		{
			Name:               "Complete Blood Count (CBC)",
			Code:               "CBC",
			Description:        "Evaluates overall health and detects a variety of disorders including anemia and infection.",
			Category:           "Hematology",
			TestType:           model.TestTypeBlood,
			SampleRequirements: []string{"Blood"},
			TATHours:           intPtr(4),
			Parameters: []model.Parameter{
				{
					Name: "White Blood Cells", Code: "WBC", Type: model.ParameterTypeNumeric,
					Unit: "10^3/uL", MinValue: floatPtr(0), MaxValue: floatPtr(100), Required: true,
					ReferenceRange: model.JSONMap{
						"adult": map[string]interface{}{"min": 4.5, "max": 11.0},
						"child": map[string]interface{}{"min": 5.0, "max": 15.5},
					},
				},
				{
					Name: "Hemoglobin", Code: "HGB", Type: model.ParameterTypeNumeric,
					Unit: "g/dL", MinValue: floatPtr(0), MaxValue: floatPtr(30), Required: true,
					ReferenceRange: model.JSONMap{
						"male":   map[string]interface{}{"min": 13.5, "max": 17.5},
						"female": map[string]interface{}{"min": 12.0, "max": 15.5},
					},
				},
				{
					Name: "Hematocrit", Code: "HCT", Type: model.ParameterTypeNumeric,
					Unit: "%", MinValue: floatPtr(0), MaxValue: floatPtr(100), Required: true,
					ReferenceRange: model.JSONMap{
						"male":   map[string]interface{}{"min": 38.8, "max": 50.0},
						"female": map[string]interface{}{"min": 34.9, "max": 44.5},
					},
				},
				{
					Name: "Platelets", Code: "PLT", Type: model.ParameterTypeNumeric,
					Unit: "10^3/uL", MinValue: floatPtr(0), MaxValue: floatPtr(2000), Required: true,
					ReferenceRange: model.JSONMap{"min": 150, "max": 450},
				},
			},
		},
		{
			Name:               "Basic Metabolic Panel",
			Code:               "BMP",
			Description:        "Measures glucose, kidney function, and electrolyte/fluid balance.",
			Category:           "Chemistry",
			TestType:           model.TestTypeBlood,
			SampleRequirements: []string{"Serum"},
			TATHours:           intPtr(4),
			Parameters: []model.Parameter{
				{Name: "Glucose", Code: "GLU", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"min": 70, "max": 99}},
				{Name: "Calcium", Code: "CA", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"min": 8.5, "max": 10.2}},
				{Name: "Sodium", Code: "NA", Type: model.ParameterTypeNumeric, Unit: "mmol/L", Required: true,
					ReferenceRange: model.JSONMap{"min": 136, "max": 145}},
				{Name: "Potassium", Code: "K", Type: model.ParameterTypeNumeric, Unit: "mmol/L", Required: true,
					ReferenceRange: model.JSONMap{"min": 3.5, "max": 5.1}},
				{Name: "Blood Urea Nitrogen", Code: "BUN", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"min": 7, "max": 20}},
				{Name: "Creatinine", Code: "CREAT", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{
						"male":   map[string]interface{}{"min": 0.74, "max": 1.35},
						"female": map[string]interface{}{"min": 0.59, "max": 1.04},
					}},
			},
		},
		{
			Name:               "Lipid Panel",
			Code:               "LIPID",
			Description:        "Measures cholesterol and triglycerides to assess cardiovascular risk.",
			Category:           "Chemistry",
			TestType:           model.TestTypeBlood,
			SampleRequirements: []string{"Serum"},
			TATHours:           intPtr(24),
			Parameters: []model.Parameter{
				{Name: "Total Cholesterol", Code: "CHOL", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"max": 200}},
				{Name: "HDL Cholesterol", Code: "HDL", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"min": 40}},
				{Name: "LDL Cholesterol", Code: "LDL", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"max": 100}},
				{Name: "Triglycerides", Code: "TRIG", Type: model.ParameterTypeNumeric, Unit: "mg/dL", Required: true,
					ReferenceRange: model.JSONMap{"max": 150}},
			},
		},
		{
			Name:               "Thyroid Function Tests",
			Code:               "THYROID",
			Description:        "Thyroid function tests help diagnose thyroid disorders.",
			Category:           "Endocrinology",
			TestType:           model.TestTypeBlood,
			SampleRequirements: []string{"Serum"},
			TATHours:           intPtr(24),
			Parameters: []model.Parameter{
				{Name: "Thyroid Stimulating Hormone", Code: "TSH", Type: model.ParameterTypeNumeric, Unit: "uIU/mL", Required: true,
					ReferenceRange: model.JSONMap{"min": 0.4, "max": 4.0}},
				{Name: "Free Thyroxine", Code: "FT4", Type: model.ParameterTypeNumeric, Unit: "ng/dL", Required: true,
					ReferenceRange: model.JSONMap{"min": 0.8, "max": 1.8}},
				{Name: "Free Triiodothyronine", Code: "FT3", Type: model.ParameterTypeNumeric, Unit: "pg/mL", Required: false,
					ReferenceRange: model.JSONMap{"min": 2.3, "max": 4.2}},
			},
		},
		{
			Name:               "Hemoglobin A1c",
			Code:               "HBA1C",
			Description:        "Average blood glucose over the previous three months.",
			Category:           "Diabetes",
			TestType:           model.TestTypeBlood,
			SampleRequirements: []string{"Whole Blood"},
			TATHours:           intPtr(24),
			Parameters: []model.Parameter{
				{Name: "Hemoglobin A1c", Code: "A1C", Type: model.ParameterTypeNumeric, Unit: "%", Required: true,
					ReferenceRange: model.JSONMap{"max": 5.7}},
			},
		},
		{
			Name:               "Urine Routine Examination",
			Code:               "URINE_RT",
			Description:        "Routine urine examination to detect and manage a wide range of disorders.",
			Category:           "Urinalysis",
			TestType:           model.TestTypeUrine,
			SampleRequirements: []string{"Urine"},
			TATHours:           intPtr(4),
			Parameters: []model.Parameter{
				{Name: "Color", Code: "COLOR", Type: model.ParameterTypeText, Required: true,
					ReferenceRange: model.JSONMap{"value": "Pale Yellow"}},
				{Name: "Appearance", Code: "APPEARANCE", Type: model.ParameterTypeText, Required: true,
					ReferenceRange: model.JSONMap{"value": "Clear"}},
				{Name: "pH", Code: "PH", Type: model.ParameterTypeNumeric, Required: true,
					ReferenceRange: model.JSONMap{"min": 4.5, "max": 8.0}},
				{Name: "Specific Gravity", Code: "SG", Type: model.ParameterTypeNumeric, Required: true,
					ReferenceRange: model.JSONMap{"min": 1.003, "max": 1.030}},
				{Name: "Protein", Code: "PROTEIN", Type: model.ParameterTypeSelect, Required: true,
					Options:        gradedOptions(4),
					ReferenceRange: model.JSONMap{"value": "NEGATIVE"}},
				{Name: "Glucose", Code: "GLUCOSE", Type: model.ParameterTypeSelect, Required: true,
					Options:        gradedOptions(4),
					ReferenceRange: model.JSONMap{"value": "NEGATIVE"}},
				{Name: "Ketones", Code: "KETONES", Type: model.ParameterTypeSelect, Required: true,
					Options:        gradedOptions(3),
					ReferenceRange: model.JSONMap{"value": "NEGATIVE"}},
				{Name: "Blood", Code: "BLOOD", Type: model.ParameterTypeSelect, Required: true,
					Options:        gradedOptions(3),
					ReferenceRange: model.JSONMap{"value": "NEGATIVE"}},
			},
		},
	}
}

// gradedOptions builds the negative/trace/1+..n+ scale used by dipstick
// style urinalysis parameters.
func gradedOptions(maxGrade int) []model.SelectOption {
	opts := []model.SelectOption{
		{Value: "NEGATIVE", Label: "Negative"},
		{Value: "TRACE", Label: "Trace"},
	}
	for i := 1; i <= maxGrade; i++ {
		grade := strconv.Itoa(i) + "+"
		opts = append(opts, model.SelectOption{Value: grade, Label: grade})
	}
	return opts
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
