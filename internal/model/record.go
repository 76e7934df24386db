// Package model defines the data types that flow through the ingestion pipeline.
package model

import (
	"crypto/sha256"
	"strings"
	"time"
)

// MobileUnknown is stored when no mobile number could be found for a sender.
const MobileUnknown = "N/A"

// RawMessage is a single message recovered from an export, before any cleaning.
type RawMessage struct {
	Timestamp   string
	SenderLabel string
	Body        string
	Line        int // 1-based line of the header in the source text
}

// Record is a classified message as persisted by a record sink.
type Record struct {
	CreatedAt    time.Time
	PostedAt     *time.Time
	ID           string
	Message      string
	SenderName   string
	SenderMobile string
	Timestamp    string
	SourceFile   string
	Category     Category
	PropertyType PropertyType
	Purpose      Purpose
	Region       string
	SenderID     int64
	Enriched     bool
}

// Normalize coerces empty or unknown categorical fields to their Other value.
func (r *Record) Normalize() {
	if c, ok := ParseCategory(string(r.Category)); ok {
		r.Category = c
	} else {
		r.Category = CategoryOther
	}
	if p, ok := ParsePropertyType(string(r.PropertyType)); ok {
		r.PropertyType = p
	} else {
		r.PropertyType = PropertyOther
	}
	if p, ok := ParsePurpose(string(r.Purpose)); ok {
		r.Purpose = p
	} else {
		r.Purpose = PurposeOther
	}
	r.Region = strings.TrimSpace(r.Region)
	if r.Region == "" {
		r.Region = RegionOther
	}
	if strings.TrimSpace(r.SenderMobile) == "" {
		r.SenderMobile = MobileUnknown
	}
}

// DedupKey returns the identity used to detect duplicate submissions.
func (r *Record) DedupKey() string {
	return strings.TrimSpace(r.SenderName) + "|" +
		strings.TrimSpace(r.SenderMobile) + "|" +
		strings.TrimSpace(r.Message)
}

// DedupHash returns a fixed-size digest of DedupKey.
func (r *Record) DedupHash() [sha256.Size]byte {
	return sha256.Sum256([]byte(r.DedupKey()))
}

// SameClassification reports whether both records carry identical classification fields.
func (r *Record) SameClassification(o *Record) bool {
	return r.Message == o.Message &&
		r.Category == o.Category &&
		r.PropertyType == o.PropertyType &&
		r.Purpose == o.Purpose &&
		r.Region == o.Region &&
		r.Enriched == o.Enriched
}
