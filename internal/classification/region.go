package classification

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

// Arabic attaches conjunctions and prepositions to the following word, so a
// named area may be prefixed by up to two of them.
const (
	areaPrefix = `(?:^|[^\p{L}\p{N}])[وبفلك]{0,2}`
	areaSuffix = `(?:$|[^\p{L}\p{N}])`
	wordStart  = `(?:^|[^\p{L}])`
)

var (
	locationLabelPattern = regexp.MustCompile(`(?i)(?:الموقع|location)\s*(?:[:/؛\-–]|هو|هي)\s*([^\n\r,،؛]+)`)

	// Number patterns run on folded text, where ta marbuta is already ha.
	blockPattern        = regexp.MustCompile(wordStart + `(?:بالحي|الحي|حي)\s*(\d+)`)
	neighborhoodPattern = regexp.MustCompile(wordStart + `(?:بالمجاوره|بمجاوره|المجاوره|مجاوره|مج)\s*(\d+)`)
	blockShortPattern   = regexp.MustCompile(wordStart + `(?:بح|ح)\s*(\d+)`)
)

type compiledArea struct {
	pattern *regexp.Regexp
	label   string
}

var (
	compiledAreas []compiledArea
	regionRules   Cascade[string]
)

func init() {
	compiledAreas = make([]compiledArea, 0, len(namedAreas))
	for _, area := range namedAreas {
		compiledAreas = append(compiledAreas, compiledArea{
			label:   area.Label,
			pattern: areaPattern(append([]string{area.Label}, area.Variants...)),
		})
	}

	regionRules = NewCascade(model.RegionOther,
		Rule[string]{Name: "named-area", Match: matchNamedArea},
		Rule[string]{Name: "location-label", Match: matchLocationLabel},
		numberRule("block-number", blockPattern, "Block"),
		numberRule("neighborhood-number", neighborhoodPattern, "Neighborhood"),
		numberRule("block-abbreviation", blockShortPattern, "Block"),
	)
}

func areaPattern(spellings []string) *regexp.Regexp {
	seen := make(map[string]bool, len(spellings))
	folded := make([]string, 0, len(spellings))
	for _, s := range spellings {
		f := textnorm.Fold(s)
		if f != "" && !seen[f] {
			seen[f] = true
			folded = append(folded, regexp.QuoteMeta(f))
		}
	}
	sort.SliceStable(folded, func(i, j int) bool { return len(folded[i]) > len(folded[j]) })
	return regexp.MustCompile(areaPrefix + `(?:` + strings.Join(folded, "|") + `)` + areaSuffix)
}

func matchNamedArea(t Text) (string, bool) {
	for _, area := range compiledAreas {
		if area.pattern.MatchString(t.Folded) {
			return area.label, true
		}
	}
	return "", false
}

func matchLocationLabel(t Text) (string, bool) {
	m := locationLabelPattern.FindStringSubmatch(t.Raw)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	folded := " " + textnorm.Fold(value)
	if n := firstNumber(blockPattern, folded); n != "" {
		return "Block " + n, true
	}
	if n := firstNumber(neighborhoodPattern, folded); n != "" {
		return "Neighborhood " + n, true
	}
	if l := utf8.RuneCountInString(value); l > 2 && l < 30 {
		return value, true
	}
	return "", false
}

func numberRule(name string, re *regexp.Regexp, label string) Rule[string] {
	return Rule[string]{
		Name: name,
		Match: func(t Text) (string, bool) {
			if n := firstNumber(re, t.Folded); n != "" {
				return label + " " + n, true
			}
			return "", false
		},
	}
}

func firstNumber(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if n := strings.TrimLeft(m[1], "0"); n != "" {
		return n
	}
	return m[1][len(m[1])-1:]
}

// DetectRegion returns the district text refers to, or Other.
func DetectRegion(text string) string {
	r, _ := regionRules.Evaluate(NewText(text))
	return r
}
