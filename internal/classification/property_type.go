package classification

import "github.com/Veraticus/the-listings-must-flow/internal/model"

type propertyKeywords struct {
	Type     model.PropertyType
	Keywords []string
}

// propertyTypeKeywords is scanned top to bottom; the first type with a
// keyword in the text wins.
var propertyTypeKeywords = []propertyKeywords{
	{model.PropertyApartment, []string{"شقة", "شقه", "شقق", "الشقة", "الشقه", "شقتي", "شقتين", "apartment", "apartments", "flat"}},
	{model.PropertyLand, []string{"أرض", "ارض", "قطعة", "قطعه", "القطعة", "قطعة أرض", "قطعه ارض", "أراضي", "اراضي", "plot", "land"}},
	{model.PropertyVilla, []string{"فيلا", "فيللا", "فلة", "فله", "الفيلا", "فيلات", "فلل", "villa"}},
	{model.PropertyHouse, []string{"بيت", "منزل", "البيت", "المنزل", "بيوت", "منازل", "house", "home"}},
	{model.PropertyFarm, []string{"مزرعة", "مزرعه", "مزارع", "المزرعة", "المزرعه", "farm", "farmland", "agricultural", "فدان", "افدنة", "أفدنة", "فدانين"}},
	{model.PropertyShop, []string{"محل", "دكان", "محلات", "المحل", "الدكان", "دكاكين", "لوكيشن تجاري", "محل تجاري", "shop", "store", "commercial shop"}},
	{model.PropertyOffice, []string{"مكتب", "مكاتب", "المكتب", "اوفيس", "أوفيس", "office", "offices"}},
	{model.PropertyBuilding, []string{"عمارة", "عماره", "عمارات", "العمارة", "العماره", "مبنى", "مبني", "building"}},
	{model.PropertyStudio, []string{"استوديو", "ستوديو", "استديو", "الاستوديو", "studio"}},
	{model.PropertyDuplex, []string{"دوبلكس", "دوبليكس", "الدوبلكس", "duplex"}},
	{model.PropertyBasement, []string{"بدروم", "البدروم", "بدرومات", "basement"}},
	{model.PropertyHangar, []string{"هنجر", "هناجر", "الهنجر", "hangar"}},
	{model.PropertyFactory, []string{"مصنع", "مصانع", "المصنع", "factory", "workshop", "ورشة", "ورش"}},
	{model.PropertyWarehouse, []string{"مخزن", "مخازن", "المخزن", "مستودع", "warehouse", "storehouse", "storage"}},
	{model.PropertyGarage, []string{"جراج", "جاراج", "الجراج", "كراج", "garage", "parking"}},
	{model.PropertyRoof, []string{"روف", "الروف", "roof"}},
	{model.PropertyPenthouse, []string{"بنتهاوس", "البنتهاوس", "بنت هاوس", "penthouse"}},
	{model.PropertyChalet, []string{"شاليه", "الشاليه", "شاليهات", "chalet", "chalets"}},
	{model.PropertyClinic, []string{"عيادة", "العيادة", "عيادات", "كلينيك", "clinic"}},
	{model.PropertyPharmacy, []string{"صيدلية", "الصيدلية", "صيدليات", "pharmacy"}},
	{model.PropertyCafe, []string{"كافيه", "كافي", "كوفي شوب", "coffeeshop", "cafe", "مقهى"}},
	{model.PropertyRestaurant, []string{"مطعم", "المطعم", "مطاعم", "restaurant"}},
	{model.PropertyHall, []string{"صالة", "الصالة", "صالات", "قاعة", "قاعة أفراح", "قاعة مناسبات", "gym", "جيم"}},
}

var (
	propertyTypeSets  = make(map[model.PropertyType]*KeywordSet, len(propertyTypeKeywords))
	anyPropertySet    *KeywordSet
	propertyTypeRules Cascade[model.PropertyType]
)

func init() {
	all := make([]string, 0, 200)
	rules := make([]Rule[model.PropertyType], 0, len(propertyTypeKeywords))
	for _, pk := range propertyTypeKeywords {
		set := NewKeywordSet(pk.Keywords...)
		propertyTypeSets[pk.Type] = set
		rules = append(rules, keywordRule("type:"+string(pk.Type), set, pk.Type))
		all = append(all, pk.Keywords...)
	}
	anyPropertySet = NewKeywordSet(all...)
	propertyTypeRules = NewCascade(model.PropertyOther, rules...)
}

// DetectPropertyType returns the highest-priority property type mentioned in text.
func DetectPropertyType(text string) model.PropertyType {
	pt, _ := propertyTypeRules.Evaluate(NewText(text))
	return pt
}

// MentionsPropertyType reports whether text contains a keyword of pt.
func MentionsPropertyType(pt model.PropertyType, text string) bool {
	set, ok := propertyTypeSets[pt]
	return ok && set.In(NewText(text))
}

// ShouldReplacePropertyType decides whether a newly computed property type
// may overwrite the one a record already carries. An unset or Other type is
// always replaced. Otherwise the candidate wins only when the text names the
// candidate but not the current type, or when the candidate is Farm and a
// farm keyword is present.
func ShouldReplacePropertyType(current, candidate model.PropertyType, text string) bool {
	if !candidate.Resolved() || candidate == current {
		return false
	}
	if !current.Resolved() {
		return true
	}

	candidateNamed := MentionsPropertyType(candidate, text)
	if candidate == model.PropertyFarm && candidateNamed {
		return true
	}
	return candidateNamed && !MentionsPropertyType(current, text)
}
