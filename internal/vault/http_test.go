// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/middleware"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/pkg/pagination"
)

// staticAuthenticator resolves fixed tokens.
type staticAuthenticator map[string]*sec.Principal

func (authenticator staticAuthenticator) AuthenticateToken(_ context.Context, token string) (*sec.Principal, error) {
	if principal, ok := authenticator[token]; ok {
		return principal, nil
	}
	return nil, apperr.Unauthorized("Session expired or missing")
}

func newTestRouter(t *testing.T) (http.Handler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(staticAuthenticator{"alice-token": alice, "bob-token": bob}))
	router.Mount("/api/v1/vaults", NewHandler(env.service).Routes())
	return router, env
}

func serve(handler http.Handler, request *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func postForm(handler http.Handler, values url.Values, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/api/v1/vaults", strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(handler, request, token)
}

func postMultipart(t *testing.T, handler http.Handler, values map[string]string, name string, data []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range values {
		require.NoError(t, writer.WriteField(key, value))
	}
	if name != "" {
		part, err := writer.CreateFormFile(FieldFile, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPost, "/api/v1/vaults", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return serve(handler, request, token)
}

type createdEnvelope struct {
	Data createdResponse `json:"data"`
}

func decodeCreated(t *testing.T, recorder *httptest.ResponseRecorder) createdResponse {
	t.Helper()
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var envelope createdEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	return envelope.Data
}

/*
TestHTTP_TextLifecycle creates, reads and deletes a text vault.
*/
func TestHTTP_TextLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	created := decodeCreated(t, postForm(router, url.Values{
		FieldType:     {"text"},
		FieldContent:  {"hello over http"},
		FieldMaxViews: {"2"},
		FieldPassword: {"pw"},
	}, "alice-token"))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, KindText, created.Type)

	// Password gate
	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID, nil), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"requires_password":true`)

	// Header password
	request := httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID, nil)
	request.Header.Set("X-Vault-Password", "pw")
	recorder = serve(router, request, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"content":"hello over http"`)
	assert.Contains(t, recorder.Body.String(), `"remaining_views":1`)

	// Wrong token
	request = httptest.NewRequest(http.MethodDelete, "/api/v1/vaults/"+created.ID, nil)
	request.Header.Set("X-Delete-Token", "nope")
	assert.Equal(t, http.StatusForbidden, serve(router, request, "alice-token").Code)

	// Query token
	request = httptest.NewRequest(http.MethodDelete, "/api/v1/vaults/"+created.ID+"?token="+url.QueryEscape(created.DeleteToken), nil)
	recorder = serve(router, request, "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"deleted":true`)

	// Gone
	request = httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID+"?password=pw", nil)
	assert.Equal(t, http.StatusNotFound, serve(router, request, "").Code)
}

/*
TestHTTP_CreateRequiresAuth answers 401 with auth_required for anonymous creators.
*/
func TestHTTP_CreateRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := postForm(router, url.Values{FieldType: {"text"}, FieldContent: {"x"}}, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"auth_required":true`)

	recorder = postForm(router, url.Values{FieldType: {"text"}, FieldContent: {"x"}}, "forged")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHTTP_CreateValidation surfaces field errors.
*/
func TestHTTP_CreateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := postForm(router, url.Values{FieldType: {"video"}}, "alice-token")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"field":"type"`)

	recorder = postMultipart(t, router, map[string]string{FieldType: "file"}, "tool.exe", []byte("MZ"), "alice-token")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHTTP_FileDownload streams a one-time file as an attachment exactly once.
*/
func TestHTTP_FileDownload(t *testing.T) {
	router, _ := newTestRouter(t)
	data := pngBytes(32 << 10)

	created := decodeCreated(t, postMultipart(t, router, map[string]string{
		FieldType:        "file",
		FieldOneTimeView: "true",
	}, "café menu.png", data, "alice-token"))

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID, nil), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"download_url":"https://vault.example.com/api/v1/vaults/`+created.ID+`/download"`)
	assert.Contains(t, recorder.Body.String(), `"file_name":"café menu.png"`)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID+"/download", nil), "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "image/png", recorder.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cafe menu.png"; filename*=UTF-8''caf%C3%A9%20menu.png`, recorder.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, data, recorder.Body.Bytes())

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults/"+created.ID+"/download", nil), "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

/*
TestHTTP_ManagePreview shows the vault to the token holder without counting.
*/
func TestHTTP_ManagePreview(t *testing.T) {
	router, env := newTestRouter(t)

	created := decodeCreated(t, postMultipart(t, router, map[string]string{
		FieldType:        "file",
		FieldOneTimeView: "1",
	}, "scan.png", pngBytes(1024), "alice-token"))

	path := "/api/v1/vaults/" + created.ID + "/manage/" + created.DeleteToken

	recorder := serve(router, httptest.NewRequest(http.MethodGet, path, nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"view_count":0`)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, path+"/download", nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, recorder.Body.Bytes(), 1024)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, path, nil), "bob-token")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	assert.True(t, env.repository.has(created.ID))
}

/*
TestHTTP_ListOwned returns the caller's vaults in a list envelope.
*/
func TestHTTP_ListOwned(t *testing.T) {
	router, _ := newTestRouter(t)

	decodeCreated(t, postForm(router, url.Values{FieldType: {"text"}, FieldContent: {"one"}}, "alice-token"))
	decodeCreated(t, postForm(router, url.Values{FieldType: {"text"}, FieldContent: {"two"}}, "alice-token"))
	decodeCreated(t, postForm(router, url.Values{FieldType: {"text"}, FieldContent: {"bob"}}, "bob-token"))

	recorder := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults", nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data []Summary       `json:"data"`
		Meta pagination.Meta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, 2, envelope.Meta.Total)
	require.Len(t, envelope.Data, 2)
	for _, summary := range envelope.Data {
		assert.Contains(t, summary.DeleteURL, "/delete/"+summary.ID+"/")
	}

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults?page=2&limit=1", nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, 2, envelope.Meta.TotalPages)

	recorder = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/vaults", nil), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHTTP_PayloadTooLarge rejects bodies above the cap with 413.
*/
func TestHTTP_PayloadTooLarge(t *testing.T) {
	router, env := newTestRouter(t)
	env.service.admission = NewAdmission(1024)

	recorder := postMultipart(t, router, map[string]string{FieldType: "file"}, "big.png", pngBytes(formOverheadBytes+4096), "alice-token")
	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)

	_, _ = io.Copy(io.Discard, recorder.Body)
	assert.Zero(t, env.repository.count())
}
