package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/types"
)

func TestClientSweep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sync/sweep", r.URL.Path)
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))

		var body map[string]bool
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["manual_trigger"])

		w.Write([]byte(`{"success":true,"message":"Processed 1 sync jobs","results":[{"job_id":"j1","account_id":"a1","result":3}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "admin").Sweep(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "j1", resp.Results[0].JobId)
	assert.Equal(t, 3, *resp.Results[0].Result)
}

func TestClientEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "failed", r.URL.Query().Get("status"))
		w.Write([]byte(`{"success":true,"data":[{"id":"j1","type":"email_sync","status":"failed","error":"boom","metadata":{}}]}`))
	}))
	defer srv.Close()

	jobs, err := NewClient(srv.URL, "").ListJobs(context.Background(), types.JobFilter{Status: types.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "boom", jobs[0].Error)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":"sweep already in progress"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Sweep(context.Background(), false)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Operation conflicts with the current state (sweep already in progress)", FormatError(err))
	assert.NotEmpty(t, GetErrorSuggestions(err))

	_, err = NewClient("127.0.0.1:1", "").Health(context.Background())
	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
}
