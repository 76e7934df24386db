package engine

import (
	"context"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
)

// Enricher defines the contract for the classification fallback consulted
// when the rules leave fields unresolved. The bool is false when there is
// nothing to apply.
type Enricher interface {
	Enrich(ctx context.Context, text string) (classification.Result, bool)
}

// Stage is a step of an import or maintenance run.
type Stage string

// Pipeline stages in the order an import passes through them.
const (
	StageIdle          Stage = "idle"
	StageParsing       Stage = "parsing"
	StageClassifying   Stage = "classifying"
	StageEnriching     Stage = "enriching"
	StagePersisting    Stage = "persisting"
	StageDeduplicating Stage = "deduplicating"
	StageReprocessing  Stage = "reprocessing"
)

// Observer receives progress from a run. Calls may come from several
// goroutines at once.
type Observer interface {
	// Stage announces that source entered stage with total units of work.
	Stage(source string, stage Stage, total int)
	// Advance reports n more units of the current stage done.
	Advance(source string, n int)
}

type nopObserver struct{}

func (nopObserver) Stage(string, Stage, int) {}
func (nopObserver) Advance(string, int)      {}
