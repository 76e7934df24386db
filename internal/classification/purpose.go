package classification

import "github.com/Veraticus/the-listings-must-flow/internal/model"

var (
	rentKeywords = NewKeywordSet(
		"للإيجار", "للايجار", "إيجار", "ايجار", "أجار", "اجار", "مطلوب للإيجار", "مطلوب للايجار",
		"مؤجر", "مؤجرة", "rent", "rental", "يومي", "شهري", "سنوي", "شهريا", "سنويا",
		"مفروش", "مفروشة", "فارغ", "فارغة", "furnished",
	)

	saleKeywords = NewKeywordSet(
		"للبيع", "بيع", "بايع", "ابيع", "أبيع", "مطلوب للشراء", "للشراء", "شراء", "اشتري", "أشتري",
		"تمليك", "ملك", "ملكية", "كاش", "cash", "قسط", "تقسيط", "دفعة", "مقدم",
		"sale", "buy", "selling",
	)

	wantedMarkers = NewKeywordSet("مطلوب", "wanted", "looking for")

	purposeRules = NewCascade(model.PurposeOther,
		keywordRule("rent-keywords", rentKeywords, model.PurposeRent),
		keywordRule("sale-keywords", saleKeywords, model.PurposeSale),
		Rule[model.Purpose]{
			Name: "wanted-property",
			Match: func(t Text) (model.Purpose, bool) {
				return model.PurposeSale, wantedMarkers.In(t) && anyPropertySet.In(t)
			},
		},
	)
)

// DetectPurpose tells whether text is about renting or buying and selling.
func DetectPurpose(text string) model.Purpose {
	p, _ := purposeRules.Evaluate(NewText(text))
	return p
}
