package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/classification"
	"github.com/Veraticus/the-listings-must-flow/internal/common"
)

// Accepted spellings of each field, in lookup order.
var (
	propertyTypeKeys = []string{"property_type", "propertytype", "type", "property"}
	regionKeys       = []string{"region", "area", "location", "district"}
	categoryKeys     = []string{"category", "status", "listing_type"}
	purposeKeys      = []string{"purpose", "intent", "transaction"}
)

// ExtractJSONObject returns the first balanced {...} object in content that
// decodes as JSON. Markdown fences and surrounding prose are ignored.
func ExtractJSONObject(content string) (map[string]any, error) {
	for start := strings.IndexByte(content, '{'); start >= 0; {
		if end := matchBrace(content, start); end > start {
			var obj map[string]any
			if err := json.Unmarshal([]byte(content[start:end+1]), &obj); err == nil {
				return obj, nil
			}
		}
		next := strings.IndexByte(content[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, fmt.Errorf("no JSON object in response: %w", common.ErrInvalidResponse)
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseSuggestion decodes a model answer into a classification, mapping
// every value onto the closed vocabularies. Values that do not map become
// Other.
func ParseSuggestion(content string) (classification.Result, error) {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return classification.Result{}, err
	}

	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		fields[strings.ToLower(strings.TrimSpace(k))] = stringValue(v)
	}

	return classification.Result{
		Category:     classification.NormalizeCategory(lookup(fields, categoryKeys)),
		PropertyType: classification.NormalizePropertyType(lookup(fields, propertyTypeKeys)),
		Purpose:      classification.NormalizePurpose(lookup(fields, purposeKeys)),
		Region:       classification.NormalizeRegion(lookup(fields, regionKeys)),
	}, nil
}

func lookup(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	}
	return ""
}
