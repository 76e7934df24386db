// Package storage provides the SQLite persistence layer for classified
// records, senders and backups.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// Validation errors. All of them wrap common.ErrInvalidInput.
var (
	ErrNilContext    = fmt.Errorf("%w: context cannot be nil", common.ErrInvalidInput)
	ErrEmptyString   = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
	ErrInvalidRecord = fmt.Errorf("%w: invalid record", common.ErrInvalidInput)
	ErrInvalidSize   = fmt.Errorf("%w: page size must be positive", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord checks the fields every stored record must carry.
func validateRecord(r *model.Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.SourceFile) == "" {
		return fmt.Errorf("%w: missing source file", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: empty message", ErrInvalidRecord)
	}
	return nil
}

func validateRecords(records []model.Record) error {
	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}
