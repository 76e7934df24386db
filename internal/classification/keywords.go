package classification

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/Veraticus/the-listings-must-flow/internal/textnorm"
)

// KeywordSet finds any of a fixed set of keywords inside folded text in a
// single pass.
type KeywordSet struct {
	matcher *ahocorasick.Matcher
	words   []string
	phrase  []bool // multi-word keywords only count as whole words
	mu      sync.Mutex // Match keeps per-call bookkeeping inside the automaton
}

// NewKeywordSet builds a set from keywords in any spelling. Keywords are
// folded the same way message text is, and duplicates after folding are
// dropped.
func NewKeywordSet(keywords ...string) *KeywordSet {
	seen := make(map[string]bool, len(keywords))
	words := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		f := textnorm.Fold(kw)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		words = append(words, f)
	}

	phrase := make([]bool, len(words))
	for i, w := range words {
		phrase[i] = strings.ContainsRune(strings.TrimSpace(w), ' ')
	}

	set := &KeywordSet{words: words, phrase: phrase}
	if len(words) > 0 {
		set.matcher = ahocorasick.NewStringMatcher(words)
	}
	return set
}

// Hits returns the keywords found in folded text, in set order.
func (k *KeywordSet) Hits(folded string) []string {
	if k == nil || k.matcher == nil || folded == "" {
		return nil
	}

	k.mu.Lock()
	idx := k.matcher.Match([]byte(folded))
	k.mu.Unlock()

	if len(idx) == 0 {
		return nil
	}
	hits := make([]string, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(k.words) {
			continue
		}
		if k.phrase[i] && !wholeWord(folded, k.words[i]) {
			continue
		}
		hits = append(hits, k.words[i])
	}
	return hits
}

// wholeWord reports whether w occurs in s with no letter or digit running
// into either end.
func wholeWord(s, w string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(w)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// In reports whether any keyword occurs in t.
func (k *KeywordSet) In(t Text) bool {
	return len(k.Hits(t.Folded)) > 0
}

// Words returns the folded keywords of the set.
func (k *KeywordSet) Words() []string {
	return append([]string(nil), k.words...)
}
