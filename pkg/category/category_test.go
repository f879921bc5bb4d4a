package category

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitford/feedrank/pkg/config"
)

func testDefaults() []config.Category {
	return []config.Category{
		{
			Name:     "Private equity acquisitions",
			Keywords: []string{"inflation"},
			Subcategories: []config.Subcategory{
				{Title: "Middle market deals", Description: "PE deal news", Keywords: []string{"acquired", "private equity"}},
				{Title: "Industrial automation", Description: "Automation news", Keywords: []string{"automation"}},
			},
		},
		{
			Name:     "Macro economy",
			Keywords: []string{"trade", "interest"},
		},
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "basic", input: "a,b,c", expected: []string{"a", "b", "c"}},
		{name: "trims whitespace", input: " a , b ,c ", expected: []string{"a", "b", "c"}},
		{name: "drops empty tokens", input: "a,,b,", expected: []string{"a", "b"}},
		{name: "empty string", input: "", expected: nil},
		{name: "only commas", input: ",,,", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitKeywords(tt.input))
		})
	}
}

func TestAllKeywords(t *testing.T) {
	cat := Category{
		Name:     "test",
		Keywords: []string{"inflation", "acquired"},
		Subcategories: []Subcategory{
			{Title: "a", Keywords: []string{"acquired", "private equity"}},
			{Title: "b", Keywords: []string{"automation", "inflation"}},
		},
	}

	all := cat.AllKeywords()

	// Deduplicated union, first-seen order.
	assert.Equal(t, []string{"inflation", "acquired", "private equity", "automation"}, all)

	// Superset of category-level and every subcategory's keywords.
	for _, kw := range cat.Keywords {
		assert.Contains(t, all, kw)
	}
	for _, sub := range cat.Subcategories {
		for _, kw := range sub.Keywords {
			assert.Contains(t, all, kw)
		}
	}
}

func TestFromParamsDefaults(t *testing.T) {
	categories := FromParams(url.Values{}, testDefaults())

	require.Len(t, categories, 2)
	assert.Equal(t, "Private equity acquisitions", categories[0].Name)
	assert.Len(t, categories[0].Subcategories, 2)
	assert.Equal(t, []string{"inflation"}, categories[0].Keywords)
	assert.Equal(t, "Macro economy", categories[1].Name)
	assert.Empty(t, categories[1].Subcategories)
}

func TestFromParamsOverrides(t *testing.T) {
	t.Run("name override keeps other defaults", func(t *testing.T) {
		params := url.Values{"category1": {"Custom name"}}
		categories := FromParams(params, testDefaults())

		assert.Equal(t, "Custom name", categories[0].Name)
		assert.Len(t, categories[0].Subcategories, 2)
		assert.Equal(t, []string{"inflation"}, categories[0].Keywords)
	})

	t.Run("any subcategory title replaces the entire default list", func(t *testing.T) {
		params := url.Values{
			"subcategory1Title":    {"Only one"},
			"subcategory1Desc":     {"A description"},
			"subcategory1Keywords": {"x, y"},
		}
		categories := FromParams(params, testDefaults())

		require.Len(t, categories[0].Subcategories, 1)
		assert.Equal(t, "Only one", categories[0].Subcategories[0].Title)
		assert.Equal(t, "A description", categories[0].Subcategories[0].Description)
		assert.Equal(t, []string{"x", "y"}, categories[0].Subcategories[0].Keywords)
	})

	t.Run("missing desc and keywords stay empty", func(t *testing.T) {
		params := url.Values{
			"subcategory1Title": {"First", "Second"},
			"subcategory1Desc":  {"desc for first"},
		}
		categories := FromParams(params, testDefaults())

		require.Len(t, categories[0].Subcategories, 2)
		assert.Equal(t, "desc for first", categories[0].Subcategories[0].Description)
		assert.Empty(t, categories[0].Subcategories[1].Description)
		assert.Empty(t, categories[0].Subcategories[1].Keywords)
	})

	t.Run("category keywords replace defaults", func(t *testing.T) {
		params := url.Values{"catKeywords2": {"oil, gas"}}
		categories := FromParams(params, testDefaults())

		assert.Equal(t, []string{"oil", "gas"}, categories[1].Keywords)
	})
}

// fakeEmbedder returns a fixed vector per text, tracking calls.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeEmbedder) ForText(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.fail[text] {
		return nil, errors.New("provider unavailable")
	}
	return []float32{1, 0, 0}, nil
}

func TestEncode(t *testing.T) {
	categories := FromConfig(testDefaults())

	embedder := &fakeEmbedder{}
	err := Encode(context.Background(), embedder, categories)
	require.NoError(t, err)

	for _, cat := range categories {
		assert.NotNil(t, cat.Embedding)
		for _, sub := range cat.Subcategories {
			assert.NotNil(t, sub.Embedding)
		}
	}

	// One call per category plus one per subcategory.
	assert.Len(t, embedder.calls, 4)

	// Subcategory text combines title and description.
	assert.Contains(t, embedder.calls, "Middle market deals\n\nPE deal news")
}

func TestEncodeFailureIsFatal(t *testing.T) {
	categories := FromConfig(testDefaults())

	embedder := &fakeEmbedder{fail: map[string]bool{
		fmt.Sprintf("%s\n\n%s", "Industrial automation", "Automation news"): true,
	}}
	err := Encode(context.Background(), embedder, categories)
	require.Error(t, err)
}
