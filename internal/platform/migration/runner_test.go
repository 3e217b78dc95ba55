// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/vaultlink", "pgx5://u:p@db:5432/vaultlink"},
		{"postgresql://db/vaultlink?sslmode=disable", "pgx5://db/vaultlink?sslmode=disable"},
		{"pgx5://db/vaultlink", "pgx5://db/vaultlink"},
		{"host=db dbname=vaultlink", "host=db dbname=vaultlink"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
	}
}
