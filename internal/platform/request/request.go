// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/ctxutil"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/internal/platform/validate"
)

// maxJSONBodyBytes caps JSON request bodies. Uploads use multipart and have their own cap.
const maxJSONBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	body := http.MaxBytesReader(nil, request.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
HeaderOrQuery returns the trimmed header value, falling back to a query parameter.

Headers win so that secrets stay out of access logs when the client can set them.
*/
func HeaderOrQuery(request *http.Request, header, query string) string {
	if value := strings.TrimSpace(request.Header.Get(header)); value != "" {
		return value
	}
	return strings.TrimSpace(request.URL.Query().Get(query))
}

/*
Principal extracts the authenticated caller from the request context.

Returns nil if the request is anonymous.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the caller.

Returns:
  - *sec.Principal: The authenticated caller
  - error: apperr.AuthRequired if the request is anonymous
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {

	// Get the caller
	principal := ctxutil.GetPrincipal(request.Context())

	// If the caller is not authenticated, return an error
	if principal == nil {
		return nil, apperr.AuthRequired("Authentication required")
	}

	return principal, nil
}
