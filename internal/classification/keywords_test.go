package classification

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordSet(t *testing.T) {
	set := NewKeywordSet("أرض", "ارض", "Plot", "")

	assert.Equal(t, []string{"ارض", "plot"}, set.Words())
	assert.True(t, set.In(NewText("قطعة أرض 300 متر")))
	assert.True(t, set.In(NewText("PLOT for sale")))
	assert.False(t, set.In(NewText("شقة")))
	assert.ElementsMatch(t, []string{"ارض", "plot"}, set.Hits(NewText("ارض plot").Folded))
}

func TestKeywordSetPhrasesMatchWholeWords(t *testing.T) {
	set := NewKeywordSet("في حد", "looking for", "مطلوب")

	tests := []struct {
		text string
		want []string
	}{
		{"في حد عنده شقة؟", []string{"في حد"}},
		{"السعر في حدود 2 مليون", nil},
		{"كفي حد", nil},
		{"still looking for, a villa", []string{"looking for"}},
		{"looking forward to it", nil},
		{"مطلوبة شقة", []string{"مطلوب"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := set.Hits(NewText(tt.text).Folded)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestKeywordSetEmpty(t *testing.T) {
	var nilSet *KeywordSet
	assert.Nil(t, nilSet.Hits("anything"))
	assert.Nil(t, NewKeywordSet().Hits("anything"))
	assert.Nil(t, NewKeywordSet("x").Hits(""))
}

func TestKeywordSetConcurrentUse(t *testing.T) {
	set := NewKeywordSet("شقة", "villa")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, set.In(NewText("شقة و villa")))
			}
		}()
	}
	wg.Wait()
}

func TestCascadeFirstMatchWins(t *testing.T) {
	c := NewCascade("none",
		Rule[string]{Name: "never", Match: func(Text) (string, bool) { return "x", false }},
		Rule[string]{Name: "first", Match: func(Text) (string, bool) { return "a", true }},
		Rule[string]{Name: "second", Match: func(Text) (string, bool) { return "b", true }},
	)

	got, rule := c.Evaluate(NewText("anything"))
	assert.Equal(t, "a", got)
	assert.Equal(t, "first", rule)
	assert.Len(t, c.Rules(), 3)

	empty := NewCascade[string]("none")
	got, rule = empty.Evaluate(NewText("anything"))
	assert.Equal(t, "none", got)
	assert.Empty(t, rule)
}
