package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobengine/internal/job"
	"jobengine/internal/policy"
	storemem "jobengine/internal/store/memory"
	transportmem "jobengine/internal/transport/memory"
)

func setup(t *testing.T) *Server {
	t.Helper()
	s := storemem.New(storemem.WithJobTypeValidator(func(jt string) bool { return jt == "sleep" }))
	tr := transportmem.New()
	return NewServer(s, tr, 4)
}

func TestServer_SubmitJob_Accepted(t *testing.T) {
	srv := setup(t)

	body, _ := json.Marshal(submitRequest{Name: "n1", JobType: "sleep", Payload: map[string]interface{}{"duration_seconds": 1.0}})
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var got job.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, job.StatusPending, got.Status)
	assert.NotEmpty(t, got.ID)
}

func TestServer_SubmitJob_UnknownTypeRejected(t *testing.T) {
	srv := setup(t)

	body, _ := json.Marshal(submitRequest{Name: "n1", JobType: "nope"})
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_GetJob_NotFound(t *testing.T) {
	srv := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CancelJob_ThenIdempotentNotFound(t *testing.T) {
	srv := setup(t)

	body, _ := json.Marshal(submitRequest{Name: "n1", JobType: "sleep"})
	postReq := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	postW := httptest.NewRecorder()
	srv.ServeHTTP(postW, postReq)
	var created job.Job
	require.NoError(t, json.Unmarshal(postW.Body.Bytes(), &created))

	delReq := httptest.NewRequest(http.MethodDelete, "/jobs/"+created.ID, nil)
	delW := httptest.NewRecorder()
	srv.ServeHTTP(delW, delReq)
	require.Equal(t, http.StatusOK, delW.Code)

	delReq2 := httptest.NewRequest(http.MethodDelete, "/jobs/"+created.ID, nil)
	delW2 := httptest.NewRecorder()
	srv.ServeHTTP(delW2, delReq2)
	assert.Equal(t, http.StatusNotFound, delW2.Code)
}

func TestServer_SetPolicy_RoundTrips(t *testing.T) {
	srv := setup(t)

	body, _ := json.Marshal(setPolicyRequest{Policy: policy.SJF})
	putReq := httptest.NewRequest(http.MethodPut, "/policy", bytes.NewReader(body))
	putW := httptest.NewRecorder()
	srv.ServeHTTP(putW, putReq)
	require.Equal(t, http.StatusOK, putW.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/policy", nil)
	getW := httptest.NewRecorder()
	srv.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &got))
	assert.Equal(t, policy.SJF, got["policy"])
}

func TestServer_SetPolicy_UnknownNameRejected(t *testing.T) {
	srv := setup(t)

	body, _ := json.Marshal(setPolicyRequest{Policy: "bogus"})
	req := httptest.NewRequest(http.MethodPut, "/policy", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_SubmitJob_ExplicitZeroMaxRetriesSurvives(t *testing.T) {
	srv := setup(t)

	zero := 0
	body, _ := json.Marshal(submitRequest{Name: "n1", JobType: "sleep", MaxRetries: &zero})
	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var got job.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 0, got.MaxRetries, "an explicit max_retries:0 in the request body must not fall back to the store default")
}

func TestServer_ListJobs_FiltersByJobTypeAndReportsTotal(t *testing.T) {
	srv := setup(t)

	for _, name := range []string{"a", "b", "c"} {
		body, _ := json.Marshal(submitRequest{Name: name, JobType: "sleep"})
		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/jobs?job_type=sleep&page_size=2", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, float64(3), got["total"], "total must count all matches, not just the returned page")
	assert.Len(t, got["items"], 2)
}

func TestServer_Health_ReportsOK(t *testing.T) {
	srv := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["store"])
	assert.Equal(t, "ok", got["transport"])
}
