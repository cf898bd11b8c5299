package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilrms/lab-master/pkg/auth"

	"github.com/sahilrms/lab-master/internal/handler"
	authHandler "github.com/sahilrms/lab-master/internal/handler/auth"
	testHandler "github.com/sahilrms/lab-master/internal/handler/test"
	testTypeHandler "github.com/sahilrms/lab-master/internal/handler/testtype"
	"github.com/sahilrms/lab-master/internal/middleware"
	"github.com/sahilrms/lab-master/internal/model"
	"github.com/sahilrms/lab-master/internal/repository/memory"
	authService "github.com/sahilrms/lab-master/internal/service/auth"
	sampleService "github.com/sahilrms/lab-master/internal/service/sample"
	testService "github.com/sahilrms/lab-master/internal/service/test"
	testTypeService "github.com/sahilrms/lab-master/internal/service/testtype"
)

type apiResponse struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type listResponse struct {
	Status string                   `json:"status"`
	Data   []map[string]interface{} `json:"data"`
}

func setupRouter(t *testing.T) *Router {
	t.Helper()

	store := memory.NewStore()
	logger := zerolog.Nop()

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "router-test-secret",
		RefreshSecret: "router-test-refresh",
	})
	authSvc := authService.NewService(store.Users(), jwtSvc)
	typeSvc := testTypeService.NewService(store.TestTypes(), store.Tests(), nil, &logger)
	testSvc := testService.NewService(store.Tests(), store.Samples(), store.TestTypes(), store.Users(), nil, nil, &logger)
	sampleSvc := sampleService.NewService(store.Samples(), store.Tests(), testSvc, nil, &logger)

	r := NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		authHandler.NewHandler(authSvc),
		testHandler.NewHandler(testSvc, sampleSvc),
		testTypeHandler.NewHandler(typeSvc),
		handler.NewHandler(nil),
		Config{MetricsPrefix: "lab_api_test"},
	)
	r.Setup()
	return r
}

func doRequest(t *testing.T, r *Router, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func registerAndLogin(t *testing.T, r *Router, email string, role model.Role) string {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/auth/register", map[string]interface{}{
		"email":    email,
		"password": "s3cret-pass",
		"role":     string(role),
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register failed: %s", w.Body.String())

	w = doRequest(t, r, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	resp := decode(t, w)
	token, _ := resp.Data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/health/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodGet, "/tests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, r, http.MethodGet, "/test-types", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderAndCompleteFlow(t *testing.T) {
	r := setupRouter(t)

	receptionist := registerAndLogin(t, r, "front@lab.example", model.RoleReceptionist)
	technician := registerAndLogin(t, r, "tech@lab.example", model.RoleLabTechnician)

	// Receptionist orders a two-sample test.
	w := doRequest(t, r, http.MethodPost, "/tests", map[string]interface{}{
		"patient_id":   "2f9f4e0c-8f43-4e2d-9f7e-0d5a3f6b1c22",
		"test_type":    "blood_test",
		"sample_types": []string{"whole_blood", "serum"},
	}, receptionist)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w)
	testID, _ := created.Data["id"].(string)
	require.NotEmpty(t, testID)
	assert.Equal(t, "pending", created.Data["status"])

	samples, ok := created.Data["samples"].([]interface{})
	require.True(t, ok)
	require.Len(t, samples, 2)

	// Technician can't order, receptionist can't complete samples.
	w = doRequest(t, r, http.MethodPost, "/tests", map[string]interface{}{
		"patient_id":   "2f9f4e0c-8f43-4e2d-9f7e-0d5a3f6b1c22",
		"test_type":    "blood_test",
		"sample_types": []string{"whole_blood"},
	}, technician)
	assert.Equal(t, http.StatusForbidden, w.Code)

	firstSample := samples[0].(map[string]interface{})["id"].(string)
	w = doRequest(t, r, http.MethodPatch, "/samples/"+firstSample, map[string]interface{}{
		"status": "completed",
	}, receptionist)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Technician completes both samples; the test follows on the last one.
	for i, raw := range samples {
		sampleID := raw.(map[string]interface{})["id"].(string)
		w = doRequest(t, r, http.MethodPatch, "/samples/"+sampleID, map[string]interface{}{
			"status": "completed",
		}, technician)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doRequest(t, r, http.MethodGet, "/tests/"+testID, nil, technician)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode(t, w)
		if i < len(samples)-1 {
			assert.Equal(t, "pending", got.Data["status"])
		} else {
			assert.Equal(t, "completed", got.Data["status"])
			assert.NotEmpty(t, got.Data["completed_at"])
		}
	}

	// Record the result.
	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/tests/%s/result", testID), map[string]interface{}{
		"result": "all values within range",
	}, technician)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "all values within range", decode(t, w).Data["result"])
}

func TestPatientScoping(t *testing.T) {
	r := setupRouter(t)

	receptionist := registerAndLogin(t, r, "front@lab.example", model.RoleReceptionist)

	// Register the patient by hand to capture their user id.
	w := doRequest(t, r, http.MethodPost, "/auth/register", map[string]interface{}{
		"email":    "patient@lab.example",
		"password": "s3cret-pass",
		"role":     "patient",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	patientUserID := decode(t, w).Data["id"].(string)

	w = doRequest(t, r, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "patient@lab.example",
		"password": "s3cret-pass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	patient := decode(t, w).Data["access_token"].(string)

	w = doRequest(t, r, http.MethodPost, "/tests", map[string]interface{}{
		"patient_id":   patientUserID,
		"test_type":    "urine_test",
		"sample_types": []string{"urine"},
	}, receptionist)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	testID := decode(t, w).Data["id"].(string)

	// Another patient's test is invisible to this patient.
	w = doRequest(t, r, http.MethodPost, "/tests", map[string]interface{}{
		"patient_id":   "9a1e8a44-1111-4222-8333-444455556666",
		"test_type":    "blood_test",
		"sample_types": []string{"whole_blood"},
	}, receptionist)
	require.Equal(t, http.StatusCreated, w.Code)
	otherTestID := decode(t, w).Data["id"].(string)

	w = doRequest(t, r, http.MethodGet, "/tests/"+testID, nil, patient)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/tests/"+otherTestID, nil, patient)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Listing is implicitly scoped to the caller.
	w = doRequest(t, r, http.MethodGet, "/tests", nil, patient)
	require.Equal(t, http.StatusOK, w.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, testID, list.Data[0]["id"])

	// Asking for someone else's listing is denied, not narrowed.
	w = doRequest(t, r, http.MethodGet, "/tests?patient_id=9a1e8a44-1111-4222-8333-444455556666", nil, patient)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTestTypeAdminGating(t *testing.T) {
	r := setupRouter(t)

	admin := registerAndLogin(t, r, "admin@lab.example", model.RoleAdmin)
	technician := registerAndLogin(t, r, "tech@lab.example", model.RoleLabTechnician)

	// Seeding is admin-only.
	w := doRequest(t, r, http.MethodPost, "/test-types/seed", nil, technician)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodPost, "/test-types/seed", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	seeded := decode(t, w)
	assert.EqualValues(t, 6, seeded.Data["seeded"])

	// Reads are open to any authenticated role.
	w = doRequest(t, r, http.MethodGet, "/test-types/code/cbc", nil, technician)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CBC", decode(t, w).Data["code"])

	// Duplicate code conflicts, regardless of case.
	w = doRequest(t, r, http.MethodPost, "/test-types", map[string]interface{}{
		"name":      "Complete Blood Count",
		"code":      "cbc",
		"test_type": "blood_test",
		"parameters": []map[string]interface{}{
			{"name": "Hemoglobin", "code": "HGB", "type": "numeric"},
		},
	}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}
