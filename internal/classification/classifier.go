// Package classification assigns category, property type, purpose and region
// to real-estate messages with ordered keyword and pattern rules.
package classification

import (
	"context"
	"log/slog"

	"github.com/Veraticus/the-listings-must-flow/internal/common"
	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// Field names used when reporting unresolved or explained fields.
const (
	FieldCategory     = "category"
	FieldPropertyType = "property_type"
	FieldPurpose      = "purpose"
	FieldRegion       = "region"
)

// Result holds the four classification fields of one message.
type Result struct {
	Category     model.Category
	PropertyType model.PropertyType
	Purpose      model.Purpose
	Region       string
}

// Unresolved lists the fields that are still Other.
func (r Result) Unresolved() []string {
	var fields []string
	if !r.Category.Resolved() {
		fields = append(fields, FieldCategory)
	}
	if !r.PropertyType.Resolved() {
		fields = append(fields, FieldPropertyType)
	}
	if !r.Purpose.Resolved() {
		fields = append(fields, FieldPurpose)
	}
	if !model.RegionResolved(r.Region) {
		fields = append(fields, FieldRegion)
	}
	return fields
}

// Complete reports whether every field is resolved.
func (r Result) Complete() bool {
	return len(r.Unresolved()) == 0
}

// ApplyTo copies the fields onto a record.
func (r Result) ApplyTo(rec *model.Record) {
	rec.Category = r.Category
	rec.PropertyType = r.PropertyType
	rec.Purpose = r.Purpose
	rec.Region = r.Region
	rec.Normalize()
}

// ResultOf returns the classification carried by a record.
func ResultOf(rec model.Record) Result {
	return Result{
		Category:     rec.Category,
		PropertyType: rec.PropertyType,
		Purpose:      rec.Purpose,
		Region:       rec.Region,
	}
}

// Explanation names the rule that decided each field. Fields decided by the
// fallback have an empty rule name.
type Explanation map[string]string

// Classifier runs the four rule cascades.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger uses the default logger.
func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: common.LoggerOrDefault(logger)}
}

// Classify assigns all four fields. It is a pure function of text.
func (c *Classifier) Classify(text string) Result {
	res, _ := c.Explain(text)
	return res
}

// Explain classifies text and reports which rule decided each field.
func (c *Classifier) Explain(text string) (Result, Explanation) {
	t := NewText(text)

	var res Result
	why := make(Explanation, 4)
	res.Category, why[FieldCategory] = categoryRules.Evaluate(t)
	res.PropertyType, why[FieldPropertyType] = propertyTypeRules.Evaluate(t)
	res.Purpose, why[FieldPurpose] = purposeRules.Evaluate(t)
	res.Region, why[FieldRegion] = regionRules.Evaluate(t)

	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		c.logger.Debug("Classified message",
			"category", res.Category, "category_rule", why[FieldCategory],
			"property_type", res.PropertyType, "property_type_rule", why[FieldPropertyType],
			"purpose", res.Purpose, "purpose_rule", why[FieldPurpose],
			"region", res.Region, "region_rule", why[FieldRegion])
	}
	return res, why
}

// Merge combines a fresh classification with the one stored on a record.
// Resolved fresh values replace stored ones, except property type which
// goes through ShouldReplacePropertyType. Unresolved fresh values keep the
// stored value. Merging the result again with the same fresh values is a
// no-op.
func Merge(stored, fresh Result, text string) Result {
	out := stored
	if fresh.Category.Resolved() {
		out.Category = fresh.Category
	}
	if fresh.Purpose.Resolved() {
		out.Purpose = fresh.Purpose
	}
	if model.RegionResolved(fresh.Region) {
		out.Region = fresh.Region
	}
	if ShouldReplacePropertyType(stored.PropertyType, fresh.PropertyType, text) {
		out.PropertyType = fresh.PropertyType
	}
	return out
}

// ApplySuggestion fills fields that are still unresolved in res with the
// resolved fields of an enrichment suggestion. Decided fields are never
// overwritten. It returns the names of the fields it filled.
func ApplySuggestion(res *Result, s Result, text string) []string {
	var filled []string
	if !res.Category.Resolved() && s.Category.Resolved() {
		res.Category = s.Category
		filled = append(filled, FieldCategory)
	}
	if !res.PropertyType.Resolved() && ShouldReplacePropertyType(res.PropertyType, s.PropertyType, text) {
		res.PropertyType = s.PropertyType
		filled = append(filled, FieldPropertyType)
	}
	if !res.Purpose.Resolved() && s.Purpose.Resolved() {
		res.Purpose = s.Purpose
		filled = append(filled, FieldPurpose)
	}
	if !model.RegionResolved(res.Region) && model.RegionResolved(s.Region) {
		res.Region = s.Region
		filled = append(filled, FieldRegion)
	}
	return filled
}
