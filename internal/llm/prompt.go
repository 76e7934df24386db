package llm

import (
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// BuildPrompt asks for the four classification fields of message as one
// JSON object, restricted to the closed vocabularies.
func BuildPrompt(message string) string {
	types := make([]string, 0, len(model.PropertyTypes))
	for _, pt := range model.PropertyTypes {
		types = append(types, string(pt))
	}

	var b strings.Builder
	b.WriteString("Analyze the following Arabic or English real-estate WhatsApp message and extract its listing data.\n")
	b.WriteString("Answers must come from the allowed lists.\n")
	b.WriteString("property_type: one of (" + strings.Join(types, ", ") + ").\n")
	b.WriteString("region: a short district or area name, or \"Other\" if none is mentioned.\n")
	b.WriteString("category: Offered (the sender has a property), Wanted (the sender is looking for one) or Other.\n")
	b.WriteString("purpose: Sale, Rent or Other.\n")
	b.WriteString("Reply with JSON only, for example:\n")
	b.WriteString(`{"property_type":"Apartment","region":"Block 12","category":"Offered","purpose":"Rent"}`)
	b.WriteString("\nDo not add any other text.\n\nMessage:\n")
	b.WriteString(message)
	return b.String()
}
