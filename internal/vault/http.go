// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/internal/platform/ctxutil"
	"github.com/taibuivan/vaultlink/internal/platform/middleware"
	requestutil "github.com/taibuivan/vaultlink/internal/platform/request"
	"github.com/taibuivan/vaultlink/internal/platform/respond"
	"github.com/taibuivan/vaultlink/pkg/filename"
	"github.com/taibuivan/vaultlink/pkg/pagination"
)

const (
	// formOverheadBytes is the room left for multipart boundaries and text fields.
	formOverheadBytes = 2 << 20

	// multipartMemoryBytes is how much of a multipart body stays in memory; the rest spills to disk.
	multipartMemoryBytes = 8 << 20

	// downloadWriteTimeout replaces the server-wide write timeout for streamed files.
	downloadWriteTimeout = 10 * time.Minute

	// uploadReadTimeout replaces the server-wide read timeout for create requests.
	uploadReadTimeout = 10 * time.Minute
)

// # Definitions & Constructors

// Handler implements the vault HTTP endpoints.
type Handler struct {
	vaultService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{vaultService: service}
}

// Routes returns a [chi.Router] configured with vault routes.
//
// # Endpoints
//   - POST   /                              : Creates a vault (multipart or urlencoded form).
//   - GET    /                              : Lists the caller's live vaults.
//   - GET    /{id}                          : Opens a vault.
//   - GET    /{id}/download                 : Streams a File vault and counts the view.
//   - GET    /{id}/manage/{token}           : Previews a vault for its delete-token holder.
//   - GET    /{id}/manage/{token}/download  : Streams a File vault for its delete-token holder.
//   - DELETE /{id}                          : Deletes a vault (X-Delete-Token).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Owner endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", handler.create)
		r.Get("/", handler.listOwned)
	})

	// Policy-gated endpoints
	router.Get("/{id}", handler.view)
	router.Get("/{id}/download", handler.download)

	// Delete-token endpoints
	router.Get("/{id}/manage/{token}", handler.preview)
	router.Get("/{id}/manage/{token}/download", handler.previewDownload)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Response Payloads

type createdResponse struct {
	ID          string    `json:"id"`
	Type        Kind      `json:"type"`
	ShareURL    string    `json:"share_url"`
	DeleteURL   string    `json:"delete_url"`
	DeleteToken string    `json:"delete_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type viewResponse struct {
	ID             string    `json:"id"`
	Type           Kind      `json:"type"`
	Content        string    `json:"content,omitempty"`
	File           *FileMeta `json:"file,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	ViewCount      int       `json:"view_count"`
	RemainingViews *int      `json:"remaining_views,omitempty"`
	OneTimeView    bool      `json:"one_time_view"`
	Consumed       bool      `json:"consumed"`
}

func newViewResponse(record *Record) viewResponse {
	response := viewResponse{
		ID:             record.ID,
		Type:           record.Kind,
		File:           record.File,
		CreatedAt:      record.CreatedAt,
		ExpiresAt:      record.ExpiresAt,
		ViewCount:      record.ViewCount,
		RemainingViews: record.RemainingViews(),
		OneTimeView:    record.OneTimeView,
	}
	if record.Kind == KindText {
		response.Content = record.Text
	}
	return response
}

/*
Create handles the creation of a new vault.

POST /api/v1/vaults

Request:
  - Body: multipart/form-data or application/x-www-form-urlencoded
    (type, content, file, expiryMinutes, expiresAt, password, maxViews, oneTimeView, allowedEmails)

Response:
  - 201: createdResponse: Share and delete links
  - 400: VALIDATION_ERROR: Bad fields, disallowed file type
  - 413: PAYLOAD_TOO_LARGE: Upload above the size cap
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	maxBytes := handler.vaultService.admission.MaxBytes()
	if request.ContentLength > maxBytes+formOverheadBytes {
		respond.Error(writer, request, apperr.PayloadTooLarge(maxBytes))
		return
	}
	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes+formOverheadBytes)
	_ = http.NewResponseController(writer).SetReadDeadline(time.Now().Add(uploadReadTimeout))

	upload, err := parseCreateRequest(request)
	if err != nil {
		respond.Error(writer, request, formError(err, maxBytes))
		return
	}
	if request.MultipartForm != nil {
		defer func() { _ = request.MultipartForm.RemoveAll() }()
	}
	if upload != nil {
		if closer, ok := upload.Content.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
	}

	input, err := ParseCreateForm(request.Form)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Upload = upload

	created, err := handler.vaultService.Create(request.Context(), principal, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, createdResponse{
		ID:          created.Record.ID,
		Type:        created.Record.Kind,
		ShareURL:    created.ShareURL,
		DeleteURL:   created.DeleteURL,
		DeleteToken: created.DeleteToken,
		ExpiresAt:   created.Record.ExpiresAt,
	})
}

// parseCreateRequest parses the form and returns the uploaded file, if any.
func parseCreateRequest(request *http.Request) (*Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, request.ParseForm()
	}

	if err := request.ParseMultipartForm(multipartMemoryBytes); err != nil {
		return nil, err
	}

	file, header, err := request.FormFile(FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}

	return newUpload(file, header), nil
}

func newUpload(file multipart.File, header *multipart.FileHeader) *Upload {
	return &Upload{Name: header.Filename, Size: header.Size, Content: file}
}

// formError maps body parsing failures to client errors.
func formError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return apperr.PayloadTooLarge(maxBytes)
	}
	return apperr.ValidationError("Malformed form body")
}

/*
ListOwned returns the caller's live vaults, newest first.

GET /api/v1/vaults?page=1&limit=20

Response:
  - 200: []Summary with pagination meta
*/
func (handler *Handler) listOwned(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request)

	summaries, total, err := handler.vaultService.ListOwned(request.Context(), principal, paginationParams)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, summaries, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
View opens a vault.

GET /api/v1/vaults/{id}

Request:
  - Header: X-Vault-Password (or ?password=)

Response:
  - 200: viewResponse
  - 401: PASSWORD_REQUIRED: Missing or wrong password
  - 403: FORBIDDEN: Not on the allow-list, or no longer accessible
  - 404: NOT_FOUND
  - 410: EXPIRED
*/
func (handler *Handler) view(writer http.ResponseWriter, request *http.Request) {
	access, err := handler.vaultService.View(request.Context(), requestutil.Param(request, "id"), readerCredentials(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	response := newViewResponse(access.Record)
	response.DownloadURL = access.DownloadURL
	response.Consumed = access.Consumed

	respond.OK(writer, response)
}

/*
Download streams a File vault as an attachment and counts the view.

GET /api/v1/vaults/{id}/download
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	handle, err := handler.vaultService.Download(request.Context(), requestutil.Param(request, "id"), readerCredentials(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	streamFile(writer, request, handle)
}

/*
Preview shows a vault to whoever holds its delete token. Nothing is counted.

GET /api/v1/vaults/{id}/manage/{token}
*/
func (handler *Handler) preview(writer http.ResponseWriter, request *http.Request) {
	record, err := handler.vaultService.Preview(
		request.Context(),
		requestutil.Param(request, "id"),
		requestutil.Param(request, "token"),
		requestutil.Principal(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	response := newViewResponse(record)
	if record.Kind == KindFile {
		response.DownloadURL = request.URL.Path + "/download"
	}

	respond.OK(writer, response)
}

/*
PreviewDownload streams a File vault to its delete-token holder. Nothing is counted.

GET /api/v1/vaults/{id}/manage/{token}/download
*/
func (handler *Handler) previewDownload(writer http.ResponseWriter, request *http.Request) {
	handle, err := handler.vaultService.PreviewDownload(
		request.Context(),
		requestutil.Param(request, "id"),
		requestutil.Param(request, "token"),
		requestutil.Principal(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	streamFile(writer, request, handle)
}

/*
Delete removes a vault.

DELETE /api/v1/vaults/{id}

Request:
  - Header: X-Delete-Token (or ?token=)

Response:
  - 200: {deleted: true}
  - 403: FORBIDDEN: Wrong token, or not the owner
  - 404: NOT_FOUND
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.HeaderOrQuery(request, constants.HeaderDeleteToken, constants.QueryDeleteToken)

	err := handler.vaultService.Delete(request.Context(), requestutil.Param(request, "id"), token, requestutil.Principal(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"deleted": true})
}

// # Helpers

func readerCredentials(request *http.Request) Credentials {
	return Credentials{
		Principal: requestutil.Principal(request),
		Password:  requestutil.HeaderOrQuery(request, constants.HeaderVaultPassword, constants.QueryPassword),
	}
}

// streamFile writes handle as an attachment and closes it.
func streamFile(writer http.ResponseWriter, request *http.Request, handle *FileHandle) {
	defer func() { _ = handle.Close() }()

	// Large files outlive the server-wide write deadline.
	_ = http.NewResponseController(writer).SetWriteDeadline(time.Now().Add(downloadWriteTimeout))

	contentType := handle.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := writer.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", filename.ContentDisposition(handle.Name))
	header.Set("Content-Length", strconv.FormatInt(handle.Size, 10))
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("Cache-Control", "no-store")
	writer.WriteHeader(http.StatusOK)

	if _, err := io.Copy(writer, handle); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "vault_download_interrupted",
			slog.String("error", err.Error()),
		)
	}
}
