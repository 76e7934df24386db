package classification

import "github.com/Veraticus/the-listings-must-flow/internal/model"

// Wanted phrasing is checked before offer phrasing because requests often
// also describe the property they are after.
var (
	wantedKeywords = NewKeywordSet(
		"مطلوب", "محتاج", "أبحث", "ابحث", "عايز", "عاوز", "needed", "wanted", "looking for",
		"طالب", "بدور على", "بدور علي", "ابي ", "أبي ", "نفسي", "عاوزين", "عايزين", "محتاجين",
		"لو حد عنده", "لو فيه", "هل يوجد", "هل في", "اللي عنده", "يا جماعة", "يا جماعه",
		"حد عنده", "في حد", "فيه حد",
	)

	// Sale and rent words are purpose evidence, not offer evidence.
	offerKeywords = NewKeywordSet(
		"متاح", "متاحة", "متاحه", "فرصه", "فرصة", "عرض", "فاضي", "فاضية", "فاضيه",
		"جاهز", "جاهزة", "استلام فوري", "تسليم فوري", "تشطيب", "نص تشطيب", "سوبر لوكس", "لوكس",
		"تمليك", "ملك", "فيو", "view", "بحري", "قبلي", "شارع رئيسي", "ناصية", "موقع متميز", "موقع مميز",
	)

	categoryRules = NewCascade(model.CategoryOther,
		keywordRule("wanted-keywords", wantedKeywords, model.CategoryWanted),
		keywordRule("offer-keywords", offerKeywords, model.CategoryOffered),
	)
)

// DetectCategory tells whether text offers or asks for a property.
func DetectCategory(text string) model.Category {
	c, _ := categoryRules.Evaluate(NewText(text))
	return c
}
