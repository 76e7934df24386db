package classification

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

// The normalizers map loosely worded values, such as those returned by a
// language model, onto the closed vocabularies. Anything that does not map
// cleanly becomes Other.

const maxRegionLength = 50

var emptyAnswers = map[string]bool{
	"": true, "other": true, "others": true, "none": true, "null": true, "unknown": true,
	"n/a": true, "na": true, "-": true, "اخرى": true, "اخري": true, "غير محدد": true, "غير معروف": true,
}

var (
	categoryOfferWords  = []string{"offered", "offer", "for sale", "available", "معروض", "عرض", "متاح"}
	categoryWantedWords = []string{"wanted", "want", "need", "buyer", "looking", "request", "مطلوب", "طلب"}
	purposeRentWords    = []string{"rent", "lease", "إيجار", "ايجار", "اجار", "تأجير"}
	purposeSaleWords    = []string{"sale", "sell", "buy", "purchase", "بيع", "شراء", "تمليك"}
)

func containsAny(folded string, words []string) bool {
	for _, w := range words {
		if strings.Contains(folded, textnorm.Fold(w)) {
			return true
		}
	}
	return false
}

// NormalizeCategory maps a free-form category onto Offered, Wanted or Other.
func NormalizeCategory(value string) model.Category {
	if c, ok := model.ParseCategory(value); ok {
		return c
	}
	f := strings.TrimSpace(textnorm.Fold(value))
	switch {
	case emptyAnswers[f]:
		return model.CategoryOther
	case containsAny(f, categoryOfferWords):
		return model.CategoryOffered
	case containsAny(f, categoryWantedWords):
		return model.CategoryWanted
	}
	return model.CategoryOther
}

// NormalizePurpose maps a free-form purpose onto Sale, Rent or Other.
func NormalizePurpose(value string) model.Purpose {
	if p, ok := model.ParsePurpose(value); ok {
		return p
	}
	f := strings.TrimSpace(textnorm.Fold(value))
	switch {
	case emptyAnswers[f]:
		return model.PurposeOther
	case containsAny(f, purposeRentWords):
		return model.PurposeRent
	case containsAny(f, purposeSaleWords):
		return model.PurposeSale
	}
	return model.PurposeOther
}

// NormalizePropertyType maps a free-form property type onto the known types
// by name, then by keyword, then by a keyword that contains the value.
func NormalizePropertyType(value string) model.PropertyType {
	if p, ok := model.ParsePropertyType(value); ok {
		return p
	}
	f := strings.TrimSpace(textnorm.Fold(value))
	if emptyAnswers[f] {
		return model.PropertyOther
	}
	if pt := DetectPropertyType(f); pt.Resolved() {
		return pt
	}
	if utf8.RuneCountInString(f) < 3 {
		return model.PropertyOther
	}
	for _, pk := range propertyTypeKeywords {
		for _, kw := range propertyTypeSets[pk.Type].Words() {
			if strings.Contains(kw, f) {
				return pk.Type
			}
		}
	}
	return model.PropertyOther
}

// NormalizeRegion maps a free-form region onto a known label when the
// region rules recognize it. Other short labels are kept as written.
func NormalizeRegion(value string) string {
	v := strings.TrimSpace(value)
	if emptyAnswers[strings.TrimSpace(textnorm.Fold(v))] {
		return model.RegionOther
	}
	if r := DetectRegion(v); model.RegionResolved(r) {
		return r
	}
	if utf8.RuneCountInString(v) > maxRegionLength || strings.ContainsAny(v, "\n{}[]") || !hasLetter(v) {
		return model.RegionOther
	}
	return v
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
