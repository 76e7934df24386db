package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrub(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "local mobile after contact keyword",
			in:   "شقة للبيع في الحي 12 - اتصل 01012345678",
			want: "شقة للبيع في الحي 12 - اتصل",
		},
		{
			name: "international formats",
			in:   "villa for rent +201012345678 or 00201112345678",
			want: "villa for rent or",
		},
		{
			name: "spaced international format",
			in:   "call me +20 101 234 5678 today",
			want: "call me today",
		},
		{
			name: "separated country prefix",
			in:   "villa 0020 1012345678 now, or +20-1112345678",
			want: "villa now, or",
		},
		{
			name: "area before a local mobile is kept",
			in:   "مساحة 120 01012345678",
			want: "مساحة 120",
		},
		{
			name: "eastern arabic numerals",
			in:   "محل للايجار ٠١٠١٢٣٤٥٦٧٨",
			want: "محل للايجار",
		},
		{
			name: "contact keyword with short number",
			in:   "مكتب اداري\nتليفون: 2345 678\nالتجمع الخامس",
			want: "مكتب اداري\nالتجمع الخامس",
		},
		{
			name: "english keyword respects word boundary",
			in:   "Hotel 5 stars, phone 24567890",
			want: "Hotel 5 stars,",
		},
		{
			name: "security notice line",
			in:   "Your security code with Ahmed changed. Tap to learn more.\nشقة للبيع",
			want: "شقة للبيع",
		},
		{
			name: "line left with punctuation only is dropped",
			in:   "ارض 300 متر\n- 01098765432 -\nبدر",
			want: "ارض 300 متر\nبدر",
		},
		{
			name: "nothing to remove keeps text verbatim",
			in:   "شقة   120 متر\n\nالحي 5",
			want: "شقة   120 متر\n\nالحي 5",
		},
		{
			name: "block numbers are not phone numbers",
			in:   "قطعة ارض بالحي 12 مجاورة 3",
			want: "قطعة ارض بالحي 12 مجاورة 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scrub(tt.in))
		})
	}
}

func TestScrubIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"شقة للبيع في الحي 12 - اتصل 01012345678",
		"رقم 01012345678 رقم 0101",
		"واتساب: +20 100 000 0000\n\n\nفيلا   بالشيخ زايد",
		"call 123 call 456 tel:789",
		"Your verification code is 1234\nTap to learn more",
		"٠١٠١٢٣٤٥٦٧٨٠١٠١٢٣٤٥٦٧٨",
		"0020 1012345678 +2001012345678",
		"محتاج شقة\t\tايجار\n-\n.",
	}

	for _, in := range inputs {
		once := Scrub(in)
		assert.Equal(t, once, Scrub(once), "input %q", in)
	}
}

func TestScrubRemovesEveryMobile(t *testing.T) {
	in := "01012345678 01112345678 01212345678 01512345678"
	out := Scrub(in)
	assert.NotRegexp(t, `01\d{9}`, out)
}
