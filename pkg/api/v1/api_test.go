package apiv1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/cache"
	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const adminToken = "admin-token"

type testServer struct {
	e      *echo.Echo
	store  *repository.SQLBackend
	dialer *mailbox.FakeDialer
	jwt    *auth.JWTValidator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewSQLiteBackendForTest(t)
	dialer := mailbox.NewFakeDialer()
	rc := cache.New(types.CacheConfig{}, nil)
	svc := syncer.NewService(store, dialer, types.SyncConfig{}, syncer.WithCache(rc))

	jwtValidator := auth.NewJWTValidator(types.AuthConfig{JWTSecret: "test-secret"})

	e := echo.New()
	e.Use(auth.HTTPMiddleware(auth.NewCompositeValidator(adminToken, jwtValidator)))

	g := e.Group(HttpServerBaseRoute)
	NewHealthGroup(g.Group("/health"), store, nil)
	NewSyncGroup(g.Group("/sync"), store, svc)
	NewAccountsGroup(g.Group("/accounts"), store, svc, rc)
	NewMessagesGroup(g.Group("/messages"), store, svc)
	NewJobsGroup(g.Group("/jobs"), store, svc)

	return &testServer{e: e, store: store, dialer: dialer, jwt: jwtValidator}
}

func (s *testServer) userToken(t *testing.T, userId string) string {
	token, err := s.jwt.Issue(userId, userId+"@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, HttpServerBaseRoute+path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) imapAccount(t *testing.T, userId, email string, messages int) *types.Account {
	t.Helper()

	account := &types.Account{
		UserId:       userId,
		Email:        email,
		AuthType:     types.AuthTypeIMAP,
		IMAPHost:     "imap.example.com",
		IMAPPort:     993,
		IMAPUsername: email,
		IMAPSecret:   "secret",
	}
	require.NoError(t, s.store.CreateAccount(context.Background(), account))

	s.dialer.Tree = []*mailbox.Mailbox{{Name: "INBOX", FullName: "INBOX"}}
	s.dialer.Mailboxes["INBOX"] = nil
	for i := 1; i <= messages; i++ {
		s.dialer.Mailboxes["INBOX"] = append(s.dialer.Mailboxes["INBOX"], &mailbox.RawMessage{
			UID:       uint32(i),
			MessageID: fmt.Sprintf("<api-%d@example.com>", i),
			Body: []byte(fmt.Sprintf("From: a@example.com\r\nSubject: Hello %d\r\n"+
				"Date: Tue, 02 Jan 2024 09:00:00 +0000\r\n\r\nhello %d\r\n", i, i)),
		})
	}
	return account
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestSyncMessagesStatusClasses(t *testing.T) {
	s := newTestServer(t)
	account := s.imapAccount(t, "user-1", "owner@example.com", 5)
	owner := s.userToken(t, "user-1")

	rec := s.do(http.MethodPost, "/sync/messages", "", map[string]string{"account_id": account.Id})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = s.do(http.MethodPost, "/sync/messages", owner, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "account_id is required", decode(t, rec)["error"])

	rec = s.do(http.MethodPost, "/sync/messages", s.userToken(t, "user-2"), map[string]string{"account_id": account.Id})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, s.dialer.Dials, "no network work before authorization")

	rec = s.do(http.MethodPost, "/sync/messages", owner, map[string]string{"account_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/sync/messages", owner, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Synced 5 emails", body["message"])
	assert.EqualValues(t, 5, body["count"])

	rec = s.do(http.MethodPost, "/sync/messages", adminToken, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "No new emails found", body["message"])
	assert.EqualValues(t, 0, body["count"])
}

func TestSyncConnectionFailure(t *testing.T) {
	s := newTestServer(t)
	account := s.imapAccount(t, "user-1", "broken@example.com", 0)
	s.dialer.DialErr = errors.New("connection refused")

	rec := s.do(http.MethodPost, "/sync/folders", s.userToken(t, "user-1"), map[string]string{"account_id": account.Id})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "broken@example.com")
}

func TestSyncFoldersFallback(t *testing.T) {
	s := newTestServer(t)
	account := &types.Account{UserId: "user-1", Email: "demo@example.com", AuthType: types.AuthTypeOAuth2}
	require.NoError(t, s.store.CreateAccount(context.Background(), account))
	token := s.userToken(t, "user-1")

	rec := s.do(http.MethodPost, "/sync/folders", token, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Synced 6 folders", decode(t, rec)["message"])

	rec = s.do(http.MethodGet, "/accounts/"+account.Id+"/folders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 6)

	rec = s.do(http.MethodGet, "/accounts/"+account.Id+"/messages?status=inbox", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	rec = s.do(http.MethodPost, "/sync/account", token, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Synced 10 emails", decode(t, rec)["message"])

	// the cached empty listing was dropped by the sync
	rec = s.do(http.MethodGet, "/accounts/"+account.Id+"/messages?status=inbox", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 7)
}

func TestSweepEndpoint(t *testing.T) {
	s := newTestServer(t)
	account := s.imapAccount(t, "user-1", "owner@example.com", 3)

	rec := s.do(http.MethodPost, "/sync/sweep", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/sync/sweep", adminToken, map[string]bool{"manual_trigger": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	result := results[0].(map[string]interface{})
	assert.Equal(t, account.Id, result["account_id"])
	assert.EqualValues(t, 3, result["result"])

	// nothing due and no manual flag
	rec = s.do(http.MethodPost, "/sync/sweep", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["results"])
}

func TestJobsEndpoints(t *testing.T) {
	s := newTestServer(t)
	account := s.imapAccount(t, "user-1", "owner@example.com", 1)
	owner := s.userToken(t, "user-1")

	rec := s.do(http.MethodPost, "/jobs", owner, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	jobId := decode(t, rec)["data"].(map[string]interface{})["id"].(string)

	rec = s.do(http.MethodGet, "/jobs/"+jobId, s.userToken(t, "user-2"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// pending jobs cannot be retried
	rec = s.do(http.MethodPost, "/jobs/"+jobId+"/retry", owner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/jobs/"+jobId+"/cancel", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["data"].(map[string]interface{})["status"])

	rec = s.do(http.MethodPost, "/jobs/"+jobId+"/retry", owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	retry := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "pending", retry["status"])
	assert.Equal(t, jobId, retry["metadata"].(map[string]interface{})["retry_of"])

	rec = s.do(http.MethodGet, "/jobs", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)

	rec = s.do(http.MethodGet, "/jobs", s.userToken(t, "user-2"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])

	rec = s.do(http.MethodGet, "/jobs/missing", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessageEndpoints(t *testing.T) {
	s := newTestServer(t)
	account := s.imapAccount(t, "user-1", "owner@example.com", 2)
	owner := s.userToken(t, "user-1")

	rec := s.do(http.MethodPost, "/sync/messages", owner, map[string]string{"account_id": account.Id})
	require.Equal(t, http.StatusOK, rec.Code)

	messages, err := s.store.ListMessages(context.Background(), types.MessageFilter{AccountId: account.Id})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	id := messages[0].Id

	rec = s.do(http.MethodPatch, "/messages/"+id, owner, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/messages/"+id, s.userToken(t, "user-2"), map[string]string{"status": "done"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPatch, "/messages/"+id, owner, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decode(t, rec)["data"].(map[string]interface{})["status"])

	rec = s.do(http.MethodPost, "/messages/"+id+"/trash", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]interface{})["deleted"])

	rec = s.do(http.MethodGet, "/accounts/"+account.Id+"/messages", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodPost, "/messages/"+id+"/restore", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["data"].(map[string]interface{})["deleted"])

	rec = s.do(http.MethodPost, "/messages/missing/archive", owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountEndpoints(t *testing.T) {
	s := newTestServer(t)
	owner := s.userToken(t, "user-1")

	rec := s.do(http.MethodPost, "/accounts", owner, map[string]interface{}{
		"user_id":   "someone-else",
		"email":     "new@example.com",
		"auth_type": "oauth2",
		"provider":  "gmail",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "user-1", created["user_id"])
	accountId := created["id"].(string)

	rec = s.do(http.MethodPost, "/accounts", owner, map[string]interface{}{"email": "x@example.com", "auth_type": "fax"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// validation of an account without imap credentials
	rec = s.do(http.MethodPost, "/accounts/validate", owner, map[string]interface{}{"email": "x@example.com", "auth_type": "oauth2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.dialer.DialErr = errors.New("authentication failed")
	rec = s.do(http.MethodPost, "/accounts", owner, map[string]interface{}{
		"email":         "imap@example.com",
		"auth_type":     "imap",
		"imap_host":     "imap.example.com",
		"imap_port":     993,
		"imap_username": "imap@example.com",
		"imap_password": "wrong",
		"validate":      true,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/accounts", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = s.do(http.MethodGet, "/accounts/"+accountId, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "imap_secret")

	rec = s.do(http.MethodDelete, "/accounts/"+accountId, owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/accounts/"+accountId, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/accounts/"+accountId, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(types.ErrSweepInProgress))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("wrapped: %w", &types.ErrJobNotFound{Id: "x"})))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(&types.ErrCapabilityUnsupported{Capability: "message flags"}))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
