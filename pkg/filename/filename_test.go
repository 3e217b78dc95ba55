// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filename_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vaultlink/pkg/filename"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"unix_path", "../../etc/passwd", "passwd"},
		{"windows_path", `C:\Users\me\notes.txt`, "notes.txt"},
		{"quotes_and_controls", "bad\"name\r\n.txt", "badname.txt"},
		{"only_dots", "...", filename.Fallback},
		{"empty", "", filename.Fallback},
		{"unicode_kept", "résumé.docx", "résumé.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filename.Sanitize(tt.in))
		})
	}
}

func TestSanitize_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 200) + ".txt"

	got := filename.Sanitize(long)

	assert.LessOrEqual(t, len(got), 255)
	assert.True(t, strings.HasPrefix(got, "é"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".pdf", filename.Extension("Report.PDF"))
	assert.Equal(t, ".gz", filename.Extension("backup.tar.gz"))
	assert.Equal(t, "", filename.Extension("README"))
	assert.Equal(t, "", filename.Extension("weird.p%f"))
	assert.Equal(t, "", filename.Extension("file.thisisfartoolong"))
}

func TestContentDisposition(t *testing.T) {
	header := filename.ContentDisposition("résumé final.pdf")

	assert.Contains(t, header, `filename="resume final.pdf"`)
	assert.Contains(t, header, `filename*=UTF-8''r%C3%A9sum%C3%A9%20final.pdf`)
}
