// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
)

/*
TestConstructors_StatusAndCode checks every taxonomy entry maps to a stable code and status.
*/
func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   string
		status int
	}{
		{"not_found", apperr.NotFound("Vault"), apperr.CodeNotFound, http.StatusNotFound},
		{"expired", apperr.Expired("Vault"), apperr.CodeExpired, http.StatusGone},
		{"unauthorized", apperr.Unauthorized("no"), apperr.CodeUnauthorized, http.StatusUnauthorized},
		{"password", apperr.PasswordRequired("pw"), apperr.CodePasswordRequired, http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("no"), apperr.CodeForbidden, http.StatusForbidden},
		{"conflict", apperr.Conflict("dup"), apperr.CodeConflict, http.StatusConflict},
		{"validation", apperr.ValidationError("bad"), apperr.CodeValidation, http.StatusBadRequest},
		{"too_large", apperr.PayloadTooLarge(50 << 20), apperr.CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"internal", apperr.Internal(errors.New("boom")), apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

/*
TestPasswordRequired_Flag verifies the password gate signal is set.
*/
func TestPasswordRequired_Flag(t *testing.T) {
	err := apperr.PasswordRequired("Password required")
	assert.True(t, err.RequiresPassword)
	assert.False(t, err.AuthRequired)
}

/*
TestWithAuthRequired_DoesNotMutate ensures flagging returns a copy.
*/
func TestWithAuthRequired_DoesNotMutate(t *testing.T) {
	base := apperr.Forbidden("Not on the allow-list")
	flagged := base.WithAuthRequired()

	assert.True(t, flagged.AuthRequired)
	assert.False(t, base.AuthRequired)
	assert.Equal(t, base.Code, flagged.Code)
}

/*
TestAs_TraversesWrappedChain checks extraction through fmt.Errorf wrapping.
*/
func TestAs_TraversesWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", apperr.NotFound("Vault"))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeNotFound, ae.Code)
	assert.True(t, apperr.HasCode(wrapped, apperr.CodeNotFound))
	assert.False(t, apperr.HasCode(errors.New("plain"), apperr.CodeNotFound))
	assert.Nil(t, apperr.As(errors.New("plain")))
}

/*
TestInternal_HidesCause verifies the client message never contains the cause.
*/
func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Error(), "relation")
	assert.ErrorIs(t, err, cause)
}
