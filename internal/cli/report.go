package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/storage"
)

type line struct {
	label string
	value any
}

func renderLines(lines []line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(LabelStyle.Render(l.label))
		b.WriteString(BoldStyle.Render(fmt.Sprint(l.value)))
	}
	return b.String()
}

// RenderImportReport renders the outcome of an import.
func RenderImportReport(r model.ImportReport) string {
	lines := []line{
		{"Messages parsed", r.Parsed},
		{"Records imported", r.Imported},
		{"Skipped", r.Skipped},
		{"Errors", r.Errors},
		{"Senders created", r.SendersCreated},
		{"Enriched", r.Enriched},
	}
	if r.Replaced > 0 {
		lines = append(lines, line{"Replaced", r.Replaced})
	}
	title := ChartIcon + " Import Complete"
	if r.SourceFile != "" {
		title += ": " + r.SourceFile
	}
	return RenderBox(title, renderLines(lines))
}

// RenderDedupReport renders the outcome of a deduplication pass.
func RenderDedupReport(r model.DedupReport, dryRun bool) string {
	title := FolderIcon + " Deduplication Complete"
	if dryRun {
		title = FolderIcon + " Deduplication Preview"
	}
	return RenderBox(title, renderLines([]line{
		{"Records before", r.OriginalCount},
		{"Duplicates found", r.DuplicatesFound},
		{"Removed", r.DuplicatesRemoved},
		{"Records after", r.NewTotalCount},
	}))
}

// RenderReprocessReport renders the outcome of a reclassification pass.
func RenderReprocessReport(r model.ReprocessReport) string {
	lines := []line{
		{"Records scanned", r.Scanned},
		{"Updated", r.Updated},
		{"Enriched", r.Enriched},
		{"Errors", r.Errors},
	}
	if r.ContactOnly > 0 {
		lines = append(lines, line{"Contact only", r.ContactOnly})
	}
	return RenderBox(RobotIcon+" Reprocess Complete", renderLines(lines))
}

// RenderStats renders database totals with a per property type breakdown,
// largest first.
func RenderStats(records, senders int, byType map[model.PropertyType]int) string {
	lines := []line{
		{"Records", records},
		{"Senders", senders},
	}
	types := make([]model.PropertyType, 0, len(byType))
	for pt := range byType {
		types = append(types, pt)
	}
	sort.Slice(types, func(i, j int) bool {
		if byType[types[i]] != byType[types[j]] {
			return byType[types[i]] > byType[types[j]]
		}
		return types[i] < types[j]
	})
	for _, pt := range types {
		label := string(pt)
		if label == "" {
			label = "Unset"
		}
		lines = append(lines, line{"  " + label, byType[pt]})
	}
	return RenderBox(ChartIcon+" Database", renderLines(lines))
}

// RenderBackups renders a backup listing, newest first as given.
func RenderBackups(backups []storage.BackupInfo) string {
	if len(backups) == 0 {
		return FormatInfo("No backups found")
	}
	var b strings.Builder
	for i, info := range backups {
		if i > 0 {
			b.WriteByte('\n')
		}
		kind := "manual"
		if info.IsAuto {
			kind = "auto"
		}
		fmt.Fprintf(&b, "%s  %s  %s",
			BoldStyle.Render(info.ID),
			info.CreatedAt.Local().Format("2006-01-02 15:04"),
			SubtleStyle.Render(fmt.Sprintf("%s, %d records, %s", kind, info.Records, humanSize(info.FileSize))))
	}
	return RenderBox(FolderIcon+" Backups", b.String())
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
