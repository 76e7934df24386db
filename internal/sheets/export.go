package sheets

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/service"
)

// Export reads every record from sink and hands them to w in one call.
// It returns the number of records written.
func Export(ctx context.Context, sink service.RecordSink, w RecordWriter, pageSize int) (int, error) {
	var records []model.Record
	err := sink.StreamAll(ctx, pageSize, func(page []model.Record) error {
		records = append(records, page...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read records: %w", err)
	}
	if err := w.Write(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
