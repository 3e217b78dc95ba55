// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/respond"
)

func TestError_CarriesClientSignals(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/vaults/abc", nil)
	recorder := httptest.NewRecorder()

	respond.Error(recorder, request, apperr.PasswordRequired("Password required"))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var envelope respond.ErrorEnvelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.Equal(t, apperr.CodePasswordRequired, envelope.Code)
	assert.True(t, envelope.RequiresPassword)
	assert.False(t, envelope.AuthRequired)
}

func TestError_UnknownErrorBecomesInternal(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	respond.Error(recorder, request, errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "disk on fire")
}

func TestCreated_WrapsData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respond.Created(recorder, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"data":{"id":"abc"}}`, recorder.Body.String())
}
