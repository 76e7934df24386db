package contact

import (
	"regexp"
	"strings"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

var (
	labelPhonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)

	// Body patterns in priority order.
	bodyPhonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`01\d{9}`),
		regexp.MustCompile(`00\d{10,13}`),
		regexp.MustCompile(`\+\d{10,13}`),
	}

	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\u00a0", "")
)

// Sender is the identity recovered for a message.
type Sender struct {
	Name   string
	Mobile string
}

// ExtractSender resolves the display name and mobile number of a message.
// The sender label is preferred. The body is only searched when the label
// carries no phone number, and must be passed before scrubbing.
func ExtractSender(label, body string) Sender {
	name := strings.TrimSpace(textnorm.StripInvisible(label))

	if m := labelPhonePattern.FindString(textnorm.FoldDigits(name)); m != "" {
		return Sender{Name: name, Mobile: NormalizeMobile(m)}
	}

	folded := textnorm.FoldDigits(body)
	for _, re := range bodyPhonePatterns {
		if m := re.FindString(folded); m != "" {
			return Sender{Name: name, Mobile: NormalizeMobile(m)}
		}
	}

	return Sender{Name: name, Mobile: model.MobileUnknown}
}

// NormalizeMobile rewrites Egyptian numbers in international form to the
// local 11-digit form. Other numbers are returned without separators.
func NormalizeMobile(raw string) string {
	n := phoneSeparators.Replace(textnorm.FoldDigits(strings.TrimSpace(raw)))
	switch {
	case n == "":
		return model.MobileUnknown
	case strings.HasPrefix(n, "+20"):
		return localize(n[3:])
	case strings.HasPrefix(n, "0020"):
		return localize(n[4:])
	case strings.HasPrefix(n, "20") && len(n) == 12 && n[2] == '1':
		return localize(n[2:])
	}
	return n
}

func localize(national string) string {
	if strings.HasPrefix(national, "0") {
		return national
	}
	return "0" + national
}
