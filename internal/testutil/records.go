package testutil

import (
	"time"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// BaseTime is the creation time of records built without an explicit one.
var BaseTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// RecordBuilder builds records with sensible defaults.
type RecordBuilder struct {
	record model.Record
}

// NewRecord starts a record with the given id from source "test.txt".
func NewRecord(id string) *RecordBuilder {
	return &RecordBuilder{record: model.Record{
		ID:           id,
		Message:      "message " + id,
		SenderName:   "Ahmed",
		SenderMobile: model.MobileUnknown,
		Timestamp:    "1/1/24, 10:00 AM",
		SourceFile:   "test.txt",
		CreatedAt:    BaseTime,
		Category:     model.CategoryOther,
		PropertyType: model.PropertyOther,
		Purpose:      model.PurposeOther,
		Region:       model.RegionOther,
	}}
}

// WithMessage sets the message body.
func (b *RecordBuilder) WithMessage(msg string) *RecordBuilder {
	b.record.Message = msg
	return b
}

// From sets the sender.
func (b *RecordBuilder) From(name, mobile string) *RecordBuilder {
	b.record.SenderName = name
	b.record.SenderMobile = mobile
	return b
}

// InSource sets the source file.
func (b *RecordBuilder) InSource(name string) *RecordBuilder {
	b.record.SourceFile = name
	return b
}

// CreatedAfter places the record d after BaseTime.
func (b *RecordBuilder) CreatedAfter(d time.Duration) *RecordBuilder {
	b.record.CreatedAt = BaseTime.Add(d)
	return b
}

// Classified sets the four classification fields.
func (b *RecordBuilder) Classified(c model.Category, pt model.PropertyType, p model.Purpose, region string) *RecordBuilder {
	b.record.Category = c
	b.record.PropertyType = pt
	b.record.Purpose = p
	b.record.Region = region
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() model.Record {
	return b.record
}
