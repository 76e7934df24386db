package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripInvisible(t *testing.T) {
	in := "\u200e1/1/24, 10:30\u202fAM - \u202aAhmed\u202c: hi\ufeff"
	assert.Equal(t, "1/1/24, 10:30 AM - Ahmed: hi", StripInvisible(in))
	assert.Equal(t, "plain", StripInvisible("plain"))
}

func TestFoldDigits(t *testing.T) {
	assert.Equal(t, "01012345678", FoldDigits("٠١٠١٢٣٤٥٦٧٨"))
	assert.Equal(t, "الحي 12", FoldDigits("الحي ١٢"))
	assert.Equal(t, "شقة مبنى", FoldDigits("شقة مبنى"))
	assert.Equal(t, "block 7", FoldDigits("block ۷"))
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apartment FOR Rent", "apartment for rent"},
		{"أرض", "ارض"},
		{"إيجار", "ايجار"},
		{"شـــقة", "شقه"},
		{"شَقَّة", "شقه"},
		{"مبنى", "مبني"},
		{"بدور على", "بدور علي"},
		{"الحي ١٢", "الحي 12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestFoldIsStable(t *testing.T) {
	for _, s := range []string{"مطلوب شقة للإيجار بالتجمع الخامس", "Villa in Sheikh Zayed ٣ غرف"} {
		once := Fold(s)
		assert.Equal(t, once, Fold(once))
	}
}
