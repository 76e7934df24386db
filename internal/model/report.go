package model

// ImportReport summarizes a single import run.
type ImportReport struct {
	SourceFile     string
	Parsed         int
	Imported       int
	Skipped        int
	Errors         int
	SendersCreated int
	Enriched       int
	Replaced       int
}

// Add accumulates another report into r.
func (r *ImportReport) Add(o ImportReport) {
	r.Parsed += o.Parsed
	r.Imported += o.Imported
	r.Skipped += o.Skipped
	r.Errors += o.Errors
	r.SendersCreated += o.SendersCreated
	r.Enriched += o.Enriched
	r.Replaced += o.Replaced
}

// DedupReport summarizes a deduplication pass.
type DedupReport struct {
	OriginalCount     int
	DuplicatesFound   int
	DuplicatesRemoved int
	NewTotalCount     int
}

// ReprocessReport summarizes a reclassification pass over stored records.
type ReprocessReport struct {
	Scanned  int
	Updated  int
	Enriched int
	Errors   int
	// ContactOnly counts records whose text is nothing but contact details.
	// Their text is left as stored.
	ContactOnly int
}
