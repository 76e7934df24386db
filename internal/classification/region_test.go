package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"block number", "شقة في الحي 12", "Block 12"},
		{"block with preposition", "شقة بالحي 12 مجاورة 3", "Block 12"},
		{"neighborhood number", "ارض بالمجاورة 5", "Neighborhood 5"},
		{"block abbreviation", "محل ح35", "Block 35"},
		{"abbreviation inside a word is ignored", "مسطح 150 متر", model.RegionOther},
		{"eastern arabic digits", "شقة في الحي ١٢", "Block 12"},
		{"leading zeros are dropped", "الحي 07", "Block 7"},
		{"named area with preposition", "فيلا بالتجمع الخامس", "Fifth Settlement"},
		{"specific settlement before generic", "شقة في التجمع الأول", "First Settlement"},
		{"specific maadi before generic", "شقة في زهراء المعادي", "Zahraa El Maadi"},
		{"madinaty", "شقة بمدينتي", "Madinaty"},
		{"october with eastern digit", "ارض ٦ أكتوبر", "6th of October"},
		{"english spelling", "Villa in Sheikh Zayed", "Sheikh Zayed"},
		{"named district beats block pattern", "الحي المتميز", "Distinguished District"},
		{"area name inside another word is ignored", "شقة بدروم للإيجار", model.RegionOther},
		{"ordinal floor is not an area", "الدور الخامس", model.RegionOther},
		{"location label with block", "الموقع: الحي 7 بجوار المسجد", "Block 7"},
		{"location label with neighborhood", "الموقع / مجاورة 4", "Neighborhood 4"},
		{"location label with eastern digits", "الموقع: مجاوره ٩", "Neighborhood 9"},
		{"location label raw value", "الموقع: بجوار الجامعة، الدور الثالث", "بجوار الجامعة"},
		{"english location label", "Location: Palm Hills", "Palm Hills"},
		{"location label needs separator", "الموقع ممتاز جدا", model.RegionOther},
		{"location value too short", "Location: x", model.RegionOther},
		{"named area wins over location and block", "الموقع: التجمع الخامس الحي 3", "Fifth Settlement"},
		{"nothing", "شقة للبيع", model.RegionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectRegion(tt.text))
		})
	}
}

func TestNamedAreasAreReachable(t *testing.T) {
	for _, area := range namedAreas {
		t.Run(area.Label, func(t *testing.T) {
			assert.Equal(t, area.Label, DetectRegion(area.Variants[0]))
		})
	}
}
