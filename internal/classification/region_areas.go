package classification

// namedArea is a district with the spellings people use for it.
type namedArea struct {
	Label    string
	Variants []string
}

// namedAreas is checked top to bottom. Areas whose spelling contains a
// shorter area's spelling come first.
var namedAreas = []namedArea{
	{"Dar Misr", []string{"دار مصر", "دارمصر"}},
	{"El Yasmeen", []string{"حي الياسمين", "الياسمين", "ياسمين"}},
	{"El Sewefy", []string{"السويفي", "سويفي"}},
	{"Greek District", []string{"الحي اليوناني", "اليوناني"}},
	{"Youth Housing", []string{"مساكن الشباب", "مساكن شباب"}},
	{"Social Housing", []string{"الاسكان الاجتماعي", "اسكان اجتماعي", "الإسكان الاجتماعي", "إسكان اجتماعي"}},
	{"Police Subdivision", []string{"تقسيم الشرطة", "تقسيم شرطة"}},
	{"Industrial Zone", []string{"المنطقة الصناعية", "منطقة صناعية", "الصناعية"}},
	{"Distinguished District", []string{"الحي المتميز", "حي متميز", "المتميز"}},
	{"First District", []string{"الحي الأول", "الحي الاول"}},
	{"Second District", []string{"الحي الثاني"}},
	{"Third District", []string{"الحي الثالث"}},
	{"Fourth District", []string{"الحي الرابع"}},
	{"Zahraa El Maadi", []string{"زهراء المعادي", "زهراء"}},
	{"Maadi", []string{"المعادي", "معادي"}},
	{"First Settlement", []string{"التجمع الأول", "التجمع الاول"}},
	{"Fifth Settlement", []string{"التجمع الخامس", "التجمع", "خامس"}},
	{"New Cairo", []string{"القاهرة الجديدة", "new cairo"}},
	{"Madinaty", []string{"مدينتي", "madinaty"}},
	{"El Rehab", []string{"الرحاب", "رحاب"}},
	{"El Shorouk", []string{"مدينة الشروق", "الشروق"}},
	{"El Obour", []string{"مدينة العبور", "العبور"}},
	{"Badr", []string{"مدينة بدر", "بدر"}},
	{"10th of Ramadan", []string{"العاشر من رمضان", "عاشر رمضان", "10 رمضان", "العاشر"}},
	{"Mokattam", []string{"المقطم", "مقطم"}},
	{"Nasr City", []string{"مدينة نصر", "م نصر"}},
	{"Heliopolis", []string{"هليوبوليس", "مصر الجديدة"}},
	{"6th of October", []string{"السادس من أكتوبر", "6 أكتوبر", "أكتوبر", "اكتوبر"}},
	{"Sheikh Zayed", []string{"الشيخ زايد", "زايد", "sheikh zayed"}},
	{"Hadayek El Ahram", []string{"حدائق الأهرام", "حدائق الاهرام", "حدائق اهرام"}},
	{"Central Plateau", []string{"الهضبة الوسطى", "هضبة وسطى"}},
	{"Bus Station", []string{"الموقف", "موقف"}},
	{"The Institute", []string{"المعهد", "معهد"}},
	{"Market Area", []string{"منطقة السوق", "السوق"}},
	{"City Center", []string{"مركز المدينة", "وسط البلد", "المركز"}},
	{"Compound", []string{"الكمبوند", "كمبوند"}},
	{"Club Area", []string{"النادي", "نادي"}},
}
