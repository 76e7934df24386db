package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/the-listings-must-flow/internal/engine"
)

var stageLabels = map[engine.Stage]string{
	engine.StageParsing:       "Parsing",
	engine.StageClassifying:   "Classifying",
	engine.StageEnriching:     "Enriching",
	engine.StagePersisting:    "Saving",
	engine.StageDeduplicating: "Deduplicating",
	engine.StageReprocessing:  "Reprocessing",
}

// Progress renders pipeline progress as one terminal bar per source and
// stage. It is safe for concurrent use by several imports.
type Progress struct {
	writer io.Writer
	bars   map[string]*progressbar.ProgressBar
	mu     sync.Mutex
}

// NewProgress creates a progress observer writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{
		writer: w,
		bars:   make(map[string]*progressbar.ProgressBar),
	}
}

var _ engine.Observer = (*Progress)(nil)

// Stage finishes the source's current bar and starts one for stage.
func (p *Progress) Stage(source string, stage engine.Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bar, ok := p.bars[source]; ok {
		if err := bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
		delete(p.bars, source)
	}

	label, ok := stageLabels[stage]
	if !ok || total <= 0 {
		return
	}
	p.bars[source] = p.newBar(describe(source, label), total)
}

// Advance moves the source's bar forward by n.
func (p *Progress) Advance(source string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[source]
	if !ok {
		return
	}
	if err := bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

func describe(source, label string) string {
	if source == "" {
		return fmt.Sprintf("[cyan][bold]%s...[reset]", label)
	}
	return fmt.Sprintf("[cyan][bold]%s[reset] %s", label, source)
}

func (p *Progress) newBar(description string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
