// Package contact removes contact details from message bodies and recovers
// the sender's mobile number.
package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// Scrubbing rules run in declaration order.
var (
	noticeLinePattern = regexp.MustCompile(`(?im)^.*(?:your security code|security code (?:with|for) .* changed|verification code|tap to learn more).*$`)

	mobilePatterns = []*regexp.Regexp{
		// +20 101 234 5678, +20-101-234-5678
		regexp.MustCompile(`\+20[\s-]?1\d{2}[\s-]?\d{3}[\s-]?\d{4}`),
		// 0020 1..., +20-1..., 0020..., 20..., 01...
		regexp.MustCompile(`(?:(?:\+|00)20[\s-]?|(?:\+|00)?(?:20)?)0?1\d{9}\b`),
		// Eastern Arabic numerals
		regexp.MustCompile(`(?:\+٢٠|٠٠٢٠|٢٠)?٠?١[٠-٩]{9}`),
	}

	contactKeywordPattern = regexp.MustCompile(
		`(?i)(?:\b(?:call|tel|phone|mobile|whatsapp)|واتساب|واتس|اتصل|موبايل|تليفون|رقم)[ \t]*:?[ \t]*\+?[\d٠-٩][\d٠-٩ ()\-]*`,
	)

	horizontalSpace = regexp.MustCompile(`[ \t\x{00a0}\x{202f}]+`)
)

// Scrub removes contact numbers and security notices from a message body.
// Text without anything to remove is returned unchanged, and scrubbing
// already scrubbed text is a no-op.
func Scrub(text string) string {
	for {
		next, changed := scrubOnce(text)
		if !changed || next == text || len(next) >= len(text) {
			return next
		}
		text = next
	}
}

func scrubOnce(text string) (string, bool) {
	out := text
	removed := false

	remove := func(re *regexp.Regexp) {
		if re.MatchString(out) {
			out = re.ReplaceAllString(out, "")
			removed = true
		}
	}

	remove(noticeLinePattern)
	for _, re := range mobilePatterns {
		remove(re)
	}
	remove(contactKeywordPattern)

	if !removed {
		return text, false
	}
	return tidyLines(out), true
}

// tidyLines collapses runs of horizontal space and drops lines left without
// any letter or digit.
func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if hasAlphanumeric(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
