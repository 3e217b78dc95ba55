// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package convert_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vaultlink/pkg/convert"
)

func TestToIntOK(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"5", 5, true},
		{" 12 ", 12, true},
		{"-3", -3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"3.5", 0, false},
	}

	for _, tt := range tests {
		got, ok := convert.ToIntOK(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestToIntD(t *testing.T) {
	assert.Equal(t, 10, convert.ToIntD("", 10))
	assert.Equal(t, 10, convert.ToIntD("ten", 10))
	assert.Equal(t, 7, convert.ToIntD("7", 10))
}

func TestToBool(t *testing.T) {
	for _, truthy := range []string{"true", "TRUE", "1", "on", "yes", " true "} {
		assert.True(t, convert.ToBool(truthy), truthy)
	}
	for _, falsy := range []string{"", "false", "0", "off", "maybe"} {
		assert.False(t, convert.ToBool(falsy), falsy)
	}
}
