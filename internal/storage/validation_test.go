package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{"valid string", "test", false},
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"string with spaces", "  test  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			assert.Equal(t, tt.wantErr, err != nil)
			if err != nil {
				assert.True(t, strings.Contains(err.Error(), "param"))
			}
		})
	}
}

func TestValidateRecords(t *testing.T) {
	good := model.Record{ID: "a", Message: "m", SourceFile: "s"}
	bad := model.Record{ID: "b", Message: "m"}

	assert.NoError(t, validateRecords(nil))
	assert.NoError(t, validateRecords([]model.Record{good}))

	err := validateRecords([]model.Record{good, bad})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "index 1")
}
