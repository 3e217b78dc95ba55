// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/blob"
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/pkg/filename"
	"github.com/taibuivan/vaultlink/pkg/pagination"
	"github.com/taibuivan/vaultlink/pkg/pointer"
	"github.com/taibuivan/vaultlink/pkg/slice"
)

// blobCleanupTimeout bounds a best-effort blob removal detached from its request.
const blobCleanupTimeout = 30 * time.Second

// # Contracts & Types

// PasswordHasher derives and checks vault passwords. [sec.Hasher] is the production implementation.
type PasswordHasher interface {
	PasswordVerifier
	Hash(ctx context.Context, plainTextPassword string) (string, error)
}

// Settings carries the lifecycle limits read from configuration.
type Settings struct {
	DefaultExpiry  time.Duration
	MaxExpiry      time.Duration
	MaxUploadBytes int64
}

// Service implements the vault lifecycle.
//
// # Side Effects
//
// Reads are not pure: a read that finds an expired record deletes it, and a
// counted view that reaches the cap deletes the record while still returning
// its payload to that final reader.
type Service struct {
	repository Repository
	blobs      blob.Store
	hasher     PasswordHasher
	policy     *Policy
	admission  *Admission
	links      *Links
	settings   Settings
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(repository Repository, blobs blob.Store, hasher PasswordHasher, links *Links, settings Settings, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		blobs:      blobs,
		hasher:     hasher,
		policy:     NewPolicy(hasher),
		admission:  NewAdmission(settings.MaxUploadBytes),
		links:      links,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

// Created is returned once, to the creator. It is the only time the delete token is shown
// outside the owner's listing.
type Created struct {
	Record      *Record
	ShareURL    string
	DeleteURL   string
	DeleteToken string
}

// Access is the outcome of a successful View.
type Access struct {
	Record *Record
	// DownloadURL is set for File records.
	DownloadURL string
	// Consumed reports that this view was the last one.
	Consumed bool
}

// Summary describes an owned record in the owner's listing.
type Summary struct {
	ID            string    `json:"id"`
	Type          Kind      `json:"type"`
	ShareURL      string    `json:"share_url"`
	DeleteURL     string    `json:"delete_url"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	ViewCount     int       `json:"view_count"`
	MaxViews      *int      `json:"max_views,omitempty"`
	OneTimeView   bool      `json:"one_time_view"`
	HasPassword   bool      `json:"has_password"`
	IsRestricted  bool      `json:"is_restricted"`
	AllowedEmails []string  `json:"allowed_emails,omitempty"`
	FileName      string    `json:"file_name,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
}

// # Creation Flow

/*
Create validates a request, stores its payload and persists a new record.

Description: For files, the upload is admitted (size, extension, sniffed type)
before any byte is stored. The blob is written before the record, and removed
again if the record cannot be persisted.

Parameters:
  - context: context.Context
  - owner: *sec.Principal (Required)
  - input: *CreateInput

Returns:
  - *Created: The record with its share and delete links
  - err: AuthRequired, ValidationError, PayloadTooLarge or storage errors
*/
func (service *Service) Create(context context.Context, owner *sec.Principal, input *CreateInput) (*Created, error) {
	if owner == nil {
		return nil, apperr.AuthRequired("Sign in to create a vault")
	}

	now := service.now()

	// 1. Validate payload and lifetime
	if err := validatePayload(input); err != nil {
		return nil, err
	}

	expiresAt, err := service.resolveExpiry(now, input)
	if err != nil {
		return nil, err
	}

	record := &Record{
		Kind:              input.Kind,
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
		MaxViews:          input.MaxViews,
		OneTimeView:       input.OneTimeView,
		OwnerID:           pointer.To(owner.UserID),
		AllowedIdentities: input.AllowedIdentities,
	}
	if input.Kind == KindText {
		record.Text = input.Text
	}

	// 2. Secrets
	if input.Password != "" {
		passwordHash, err := service.hasher.Hash(context, input.Password)
		if err != nil {
			return nil, fmt.Errorf("vault_service_hash_failed: %w", err)
		}
		record.PasswordHash = &passwordHash
	}

	deleteToken, err := sec.GenerateSecureToken(DeleteTokenLength)
	if err != nil {
		return nil, fmt.Errorf("vault_service_token_failed: %w", err)
	}
	record.DeleteToken = &deleteToken

	// 3. Payload bytes
	if input.Kind == KindFile {
		meta, err := service.storeUpload(context, input.Upload, now)
		if err != nil {
			return nil, err
		}
		record.File = meta
	}

	// 4. Persist under a fresh short ID
	if err := service.insert(context, record); err != nil {
		if ref := record.StorageRef(); ref != "" {
			service.removeBlob(context, ref)
		}
		return nil, err
	}

	vaultsCreatedTotal.WithLabelValues(string(record.Kind)).Inc()
	service.logger.InfoContext(context, "vault_created",
		slog.String("vault_id", record.ID),
		slog.String("kind", string(record.Kind)),
		slog.Time("expires_at", record.ExpiresAt),
		slog.Bool("password", record.HasPassword()),
		slog.Bool("restricted", record.IsRestricted()),
	)

	return &Created{
		Record:      record,
		ShareURL:    service.links.ShareURL(record.ID),
		DeleteURL:   service.links.DeleteURL(record.ID, deleteToken),
		DeleteToken: deleteToken,
	}, nil
}

// validatePayload checks that the payload matches the declared kind.
func validatePayload(input *CreateInput) error {
	switch input.Kind {
	case KindText:
		if input.Upload != nil {
			return apperr.ValidationError("Text vaults do not accept a file", apperr.FieldError{Field: FieldFile, Message: "Use type=file to share a file"})
		}
		if strings.TrimSpace(input.Text) == "" {
			return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldContent, Message: "This field is required"})
		}
		if len(input.Text) > MaxTextBytes {
			return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldContent, Message: fmt.Sprintf("Maximum %d bytes", MaxTextBytes)})
		}
	case KindFile:
		if input.Upload == nil || input.Upload.Content == nil {
			return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldFile, Message: "A file is required"})
		}
	default:
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldType, Message: "Must be one of: text, file"})
	}
	return nil
}

/*
resolveExpiry turns a relative or absolute expiry into a timestamp.

Relative expiry defaults to the configured default. Both forms are clamped to
the configured maximum lifetime.
*/
func (service *Service) resolveExpiry(now time.Time, input *CreateInput) (time.Time, error) {
	latest := now.Add(service.settings.MaxExpiry)

	if input.ExpiresAt != nil && input.ExpiryMinutes != nil {
		return time.Time{}, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldExpiresAt, Message: "Use either expiryMinutes or expiresAt, not both"})
	}

	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(now) {
			return time.Time{}, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldExpiresAt, Message: "Must be in the future"})
		}
		if input.ExpiresAt.After(latest) {
			return latest, nil
		}
		return *input.ExpiresAt, nil
	}

	if input.ExpiryMinutes == nil {
		return now.Add(service.settings.DefaultExpiry), nil
	}

	minutes := *input.ExpiryMinutes
	if minutes <= 0 {
		return time.Time{}, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldExpiryMinutes, Message: "Must be a positive number of minutes"})
	}
	if minutes > int(service.settings.MaxExpiry/time.Minute) {
		return latest, nil
	}
	return now.Add(time.Duration(minutes) * time.Minute), nil
}

/*
storeUpload admits an upload and writes it to the blob store.

Description: The first bytes are sniffed for admission. Seekable uploads are
rewound and streamed as-is; others are stitched back together with the
sniffed prefix.
*/
func (service *Service) storeUpload(context context.Context, upload *Upload, now time.Time) (*FileMeta, error) {
	head := make([]byte, sniffLength)
	read, err := io.ReadFull(upload.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("vault_service_read_upload_failed: %w", err)
	}
	head = head[:read]

	mimeType, err := service.admission.Admit(upload.Name, upload.Size, head)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if seeker, ok := upload.Content.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("vault_service_rewind_upload_failed: %w", err)
		}
		body = upload.Content
	} else {
		body = io.MultiReader(bytes.NewReader(head), upload.Content)
	}

	suffix, err := gonanoid.New(storageSuffixLength)
	if err != nil {
		return nil, fmt.Errorf("vault_service_storage_key_failed: %w", err)
	}
	key := fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, filename.Extension(upload.Name))

	// One byte past the cap is enough to detect a lying size header.
	limit := service.admission.MaxBytes()
	written, err := service.blobs.Put(context, key, io.LimitReader(body, limit+1), upload.Size)
	if err != nil {
		return nil, fmt.Errorf("vault_service_store_upload_failed: %w", err)
	}
	if written > limit {
		service.removeBlob(context, key)
		return nil, apperr.PayloadTooLarge(limit)
	}

	return &FileMeta{
		StorageRef:   key,
		OriginalName: filename.Sanitize(upload.Name),
		ByteSize:     written,
		MIMEType:     mimeType,
	}, nil
}

// insert assigns a short ID and persists the record, regenerating the ID on collision.
func (service *Service) insert(context context.Context, record *Record) error {
	for attempt := 1; attempt <= constants.VaultIDAttempts; attempt++ {
		id, err := gonanoid.Generate(constants.VaultIDAlphabet, constants.VaultIDLength)
		if err != nil {
			return fmt.Errorf("vault_service_id_failed: %w", err)
		}
		record.ID = id

		err = service.repository.Create(context, record)
		if err == nil {
			return nil
		}
		if !apperr.HasCode(err, apperr.CodeConflict) {
			return fmt.Errorf("vault_service_create_failed: %w", err)
		}

		service.logger.WarnContext(context, "vault_id_collision", slog.Int("attempt", attempt))
	}

	return apperr.Internal(errors.New("vault_service_id_space_exhausted"))
}

// # Read Flow

/*
View opens a vault for a reader.

Description: Text views are counted; the view that reaches the cap (or the
first view of a one-time vault) deletes the record and still returns the text.
File views pass the same gates but are not counted: the download is the
consuming access, so the returned metadata carries its URL.

Note: for File records only [Service.Download] counts toward MaxViews and
OneTimeView. A one-time file can be viewed any number of times until its
first download removes it.

Returns:
  - *Access: The record as seen by this reader
  - err: NotFound, Expired, Forbidden or PasswordRequired
*/
func (service *Service) View(context context.Context, id string, creds Credentials) (*Access, error) {
	record, err := service.load(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.policy.EvaluateAccess(context, record, creds); err != nil {
		return nil, err
	}

	if record.Kind == KindFile {
		return &Access{Record: record, DownloadURL: service.links.DownloadURL(record.ID)}, nil
	}

	consumed, err := service.countView(context, record)
	if err != nil {
		return nil, err
	}

	return &Access{Record: record, Consumed: consumed}, nil
}

/*
Download opens the bytes of a File vault and counts the view.

Description: The blob is opened before the view is counted, so a missing blob
never burns a view. When this download is the final one the record is deleted
at once and the blob is removed when the returned handle is closed.

Returns:
  - *FileHandle: The stream; callers must Close it
  - err: NotFound (also for Text vaults), Expired, Forbidden or PasswordRequired
*/
func (service *Service) Download(context context.Context, id string, creds Credentials) (*FileHandle, error) {
	record, err := service.load(context, id)
	if err != nil {
		return nil, err
	}
	if record.Kind != KindFile {
		return nil, errVaultNotFound()
	}

	if err := service.policy.EvaluateAccess(context, record, creds); err != nil {
		return nil, err
	}

	content, err := service.openBlob(context, record)
	if err != nil {
		return nil, err
	}

	consumed, err := service.countView(context, record)
	if err != nil {
		_ = content.Close()
		return nil, err
	}

	handle := newFileHandle(content, record.File)
	if consumed {
		handle.onClose = service.scheduleRemoval(context, record.StorageRef())
	}

	return handle, nil
}

// # Management Flow

/*
Preview shows a record to the holder of its delete token without side effects.

Returns:
  - *Record: The record, view count untouched
  - err: NotFound, Expired or Forbidden
*/
func (service *Service) Preview(context context.Context, id, token string, principal *sec.Principal) (*Record, error) {
	record, err := service.load(context, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeManage(record, token, principal); err != nil {
		return nil, err
	}

	return record, nil
}

/*
PreviewDownload streams a File vault to the holder of its delete token.
No view is counted and nothing is deleted.
*/
func (service *Service) PreviewDownload(context context.Context, id, token string, principal *sec.Principal) (*FileHandle, error) {
	record, err := service.Preview(context, id, token, principal)
	if err != nil {
		return nil, err
	}
	if record.Kind != KindFile {
		return nil, errVaultNotFound()
	}

	content, err := service.openBlob(context, record)
	if err != nil {
		return nil, err
	}

	return newFileHandle(content, record.File), nil
}

/*
Delete removes a record and its blob.

Description: The token is compared in constant time, then ownership is
checked. An expired record is reclaimed and reported as NotFound. A missing
blob is not an error.

Returns:
  - err: NotFound or Forbidden
*/
func (service *Service) Delete(context context.Context, id, token string, principal *sec.Principal) error {
	record, err := service.load(context, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeExpired) {
			return errVaultNotFound()
		}
		return err
	}

	if err := authorizeManage(record, token, principal); err != nil {
		return err
	}

	deleted, err := service.repository.Delete(context, record.ID)
	if err != nil {
		return fmt.Errorf("vault_service_delete_failed: %w", err)
	}
	if !deleted {
		return errVaultNotFound()
	}

	if ref := record.StorageRef(); ref != "" {
		service.removeBlob(context, ref)
	}

	vaultConsumedTotal.WithLabelValues(reasonDeleted).Inc()
	service.logger.InfoContext(context, "vault_deleted", slog.String("vault_id", record.ID))

	return nil
}

/*
ListOwned returns one page of the caller's live vaults, newest first.

Description: Only the owner sees these summaries, so delete links are included.

Returns:
  - []Summary: The requested page
  - int: Total live vaults of the owner
  - error: apperr.AuthRequired for anonymous callers
*/
func (service *Service) ListOwned(context context.Context, owner *sec.Principal, page pagination.Params) ([]Summary, int, error) {
	if owner == nil {
		return nil, 0, apperr.AuthRequired("Sign in to list your vaults")
	}

	records, total, err := service.repository.ListByOwner(context, owner.UserID, service.now(), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("vault_service_list_failed: %w", err)
	}

	return slice.Map(records, service.summarize), total, nil
}

func (service *Service) summarize(record *Record) Summary {
	summary := Summary{
		ID:            record.ID,
		Type:          record.Kind,
		ShareURL:      service.links.ShareURL(record.ID),
		CreatedAt:     record.CreatedAt,
		ExpiresAt:     record.ExpiresAt,
		ViewCount:     record.ViewCount,
		MaxViews:      record.MaxViews,
		OneTimeView:   record.OneTimeView,
		HasPassword:   record.HasPassword(),
		IsRestricted:  record.IsRestricted(),
		AllowedEmails: record.AllowedIdentities,
	}
	if record.DeleteToken != nil {
		summary.DeleteURL = service.links.DeleteURL(record.ID, *record.DeleteToken)
	}
	if record.File != nil {
		summary.FileName = record.File.OriginalName
		summary.FileSize = record.File.ByteSize
	}
	return summary
}

// # Lifecycle Internals

// load fetches a record and reclaims it on the spot when it has expired.
func (service *Service) load(context context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errVaultNotFound()
	}

	record, err := service.repository.FindByID(context, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("vault_service_lookup_failed: %w", err)
	}

	if record.IsExpired(service.now()) {
		service.destroy(context, record, reasonExpired)
		return nil, apperr.Expired("Vault")
	}

	return record, nil
}

/*
countView records one view and deletes the record when that view is terminal.

Description: A record removed by a racing terminal view between lookup and
increment still serves this reader; the two final readers both succeed.
*/
func (service *Service) countView(context context.Context, record *Record) (bool, error) {
	viewCount, err := service.repository.IncrementViewCount(context, record.ID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			record.ViewCount++
			return true, nil
		}
		return false, fmt.Errorf("vault_service_count_view_failed: %w", err)
	}

	record.ViewCount = viewCount
	vaultViewsTotal.WithLabelValues(string(record.Kind)).Inc()

	if !record.IsConsumedAt(viewCount) {
		return false, nil
	}

	reason := consumptionReason(record)
	if _, err := service.repository.Delete(context, record.ID); err != nil {
		// The stored count already blocks further reads.
		service.logger.ErrorContext(context, "vault_consume_delete_failed",
			slog.String("vault_id", record.ID),
			slog.Any("error", err),
		)
	}

	vaultConsumedTotal.WithLabelValues(reason).Inc()
	service.logger.InfoContext(context, "vault_consumed",
		slog.String("vault_id", record.ID),
		slog.String("reason", reason),
		slog.Int("view_count", viewCount),
	)

	return true, nil
}

// destroy removes a record and its blob outside of an explicit delete.
func (service *Service) destroy(context context.Context, record *Record, reason string) {
	deleted, err := service.repository.Delete(context, record.ID)
	if err != nil {
		service.logger.ErrorContext(context, "vault_reclaim_on_read_failed",
			slog.String("vault_id", record.ID),
			slog.Any("error", err),
		)
		return
	}

	if ref := record.StorageRef(); ref != "" {
		service.removeBlob(context, ref)
	}

	if deleted {
		vaultConsumedTotal.WithLabelValues(reason).Inc()
		service.logger.InfoContext(context, "vault_reclaimed_on_read",
			slog.String("vault_id", record.ID),
			slog.String("reason", reason),
		)
	}
}

// openBlob opens a File vault's bytes. A record without bytes is reported as missing.
func (service *Service) openBlob(context context.Context, record *Record) (io.ReadCloser, error) {
	content, err := service.blobs.Open(context, record.StorageRef())
	if err != nil {
		if blob.IsNotExist(err) || errors.Is(err, blob.ErrInvalidKey) {
			service.logger.WarnContext(context, "vault_blob_missing", slog.String("vault_id", record.ID))
			return nil, errVaultNotFound()
		}
		return nil, fmt.Errorf("vault_service_open_blob_failed: %w", err)
	}
	return content, nil
}

// removeBlob deletes a blob on a best-effort basis. Already-absent blobs are fine.
func (service *Service) removeBlob(ctx context.Context, key string) {
	cleanupCtx, cancel := context.WithTimeout(ctx, blobCleanupTimeout)
	defer cancel()

	if err := service.blobs.Delete(cleanupCtx, key); err != nil && !blob.IsNotExist(err) {
		service.logger.ErrorContext(ctx, "vault_blob_delete_failed",
			slog.String("storage_ref", key),
			slog.Any("error", err),
		)
	}
}

// scheduleRemoval defers a blob removal until a stream is closed, outliving the request.
func (service *Service) scheduleRemoval(ctx context.Context, key string) func() {
	detached := context.WithoutCancel(ctx)
	return func() { service.removeBlob(detached, key) }
}

// # File Handles

// FileHandle streams a File vault. Close must be called exactly once.
type FileHandle struct {
	content  io.ReadCloser
	Name     string
	MIMEType string
	Size     int64

	onClose func()
}

func newFileHandle(content io.ReadCloser, meta *FileMeta) *FileHandle {
	return &FileHandle{
		content:  content,
		Name:     meta.OriginalName,
		MIMEType: meta.MIMEType,
		Size:     meta.ByteSize,
	}
}

// Read implements [io.Reader].
func (handle *FileHandle) Read(p []byte) (int, error) {
	return handle.content.Read(p)
}

// Close releases the stream and runs any removal scheduled by a final download.
func (handle *FileHandle) Close() error {
	err := handle.content.Close()
	if handle.onClose != nil {
		handle.onClose()
		handle.onClose = nil
	}
	return err
}
