package classification

import "github.com/Veraticus/the-listings-must-flow/internal/textnorm"

// Text is a message body prepared for matching.
type Text struct {
	// Raw has invisible characters removed and digits folded to ASCII but
	// otherwise keeps the original spelling. Extracted labels come from it.
	Raw string
	// Folded is the lower-cased, diacritic-free form keyword sets match against.
	Folded string
}

// NewText prepares s for matching.
func NewText(s string) Text {
	raw := textnorm.FoldDigits(textnorm.StripInvisible(s))
	return Text{Raw: raw, Folded: textnorm.Fold(raw)}
}

// Rule is one step of a classifier. Match reports a value when the rule applies.
type Rule[T any] struct {
	Match func(Text) (T, bool)
	Name  string
}

// Cascade evaluates rules in order. The first rule that matches decides the
// result; the fallback is returned when none does.
type Cascade[T any] struct {
	fallback T
	rules    []Rule[T]
}

// NewCascade builds a cascade from rules in precedence order.
func NewCascade[T any](fallback T, rules ...Rule[T]) Cascade[T] {
	return Cascade[T]{fallback: fallback, rules: rules}
}

// Evaluate returns the value of the first matching rule and its name. The
// name is empty when the fallback was used.
func (c Cascade[T]) Evaluate(t Text) (T, string) {
	for _, r := range c.rules {
		if v, ok := r.Match(t); ok {
			return v, r.Name
		}
	}
	return c.fallback, ""
}

// Rules returns the rules in precedence order.
func (c Cascade[T]) Rules() []Rule[T] {
	return append([]Rule[T](nil), c.rules...)
}

// keywordRule yields value when any keyword of set occurs in the text.
func keywordRule[T any](name string, set *KeywordSet, value T) Rule[T] {
	return Rule[T]{
		Name: name,
		Match: func(t Text) (T, bool) {
			return value, set.In(t)
		},
	}
}
