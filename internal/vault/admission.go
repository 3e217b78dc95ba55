// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/pkg/filename"
)

// # File-Type Allow-List

// allowedTypes maps each accepted extension to the content types its bytes may
// sniff as. A type matches when the detected type or any of its parents is listed,
// so container formats (OOXML on zip, legacy Office on OLE) are covered.
var allowedTypes = map[string][]string{
	// Documents
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".xls":  {"application/vnd.ms-excel", "application/x-ole-storage"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	".ppt":  {"application/vnd.ms-powerpoint", "application/x-ole-storage"},
	".pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "application/zip"},
	".odt":  {"application/vnd.oasis.opendocument.text", "application/zip"},
	".ods":  {"application/vnd.oasis.opendocument.spreadsheet", "application/zip"},
	".rtf":  {"text/rtf", "text/plain"},

	// Plain text
	".txt":  {"text/plain"},
	".md":   {"text/plain"},
	".csv":  {"text/csv", "text/plain"},
	".json": {"application/json", "text/plain"},
	".log":  {"text/plain"},

	// Images
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".bmp":  {"image/bmp"},

	// Archives
	".zip": {"application/zip"},
	".gz":  {"application/gzip"},
	".tar": {"application/x-tar"},
	".7z":  {"application/x-7z-compressed"},
	".rar": {"application/x-rar-compressed"},
}

// Admission decides whether an upload may become a File vault.
type Admission struct {
	maxBytes int64
}

// NewAdmission creates an Admission that rejects uploads above maxBytes.
func NewAdmission(maxBytes int64) *Admission {
	return &Admission{maxBytes: maxBytes}
}

// MaxBytes returns the size cap.
func (admission *Admission) MaxBytes() int64 {
	return admission.maxBytes
}

/*
Admit checks an upload and returns the content type to store with it.

 1. Size: non-empty and at most the configured cap.
 2. Extension: must be on the allow-list.
 3. Content: the sniffed type of head must agree with the extension.

head is the beginning of the upload; a few kilobytes are enough.
*/
func (admission *Admission) Admit(name string, size int64, head []byte) (string, error) {

	// 1. Size bounds
	if size > admission.maxBytes {
		return "", apperr.PayloadTooLarge(admission.maxBytes)
	}
	if size <= 0 {
		return "", apperr.ValidationError("Uploaded file is empty", apperr.FieldError{Field: FieldFile, Message: "File is empty"})
	}

	// 2. Extension allow-list
	ext := filename.Extension(name)
	accepted, ok := allowedTypes[ext]
	if !ok {
		return "", apperr.ValidationError("File type is not allowed", apperr.FieldError{
			Field:   FieldFile,
			Message: extensionMessage(ext),
		})
	}

	// 3. Sniffed content must match the claimed extension
	detected := mimetype.Detect(head)
	if !matchesAny(detected, accepted) {
		return "", apperr.ValidationError("File content does not match its extension", apperr.FieldError{
			Field:   FieldFile,
			Message: fmt.Sprintf("Content looks like %s", detected.String()),
		})
	}

	return detected.String(), nil
}

func matchesAny(detected *mimetype.MIME, accepted []string) bool {
	for current := detected; current != nil; current = current.Parent() {
		for _, candidate := range accepted {
			if current.Is(candidate) {
				return true
			}
		}
	}
	return false
}

func extensionMessage(ext string) string {
	if ext == "" {
		return "Files without an extension are not allowed"
	}
	return fmt.Sprintf("Extension %q is not allowed", ext)
}
