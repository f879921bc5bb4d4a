package keyword

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		expected []string
	}{
		{
			name:     "case insensitive",
			text:     "Hello World",
			keywords: []string{"world"},
			expected: []string{"world"},
		},
		{
			name:     "preserves keyword order",
			text:     "central bank raises interest rates amid inflation",
			keywords: []string{"inflation", "interest", "trade"},
			expected: []string{"inflation", "interest"},
		},
		{
			name:     "substring containment",
			text:     "The firm was acquired yesterday",
			keywords: []string{"acquire"},
			expected: []string{"acquire"},
		},
		{
			name:     "no hits",
			text:     "quarterly earnings report",
			keywords: []string{"inflation"},
			expected: nil,
		},
		{
			name:     "empty text",
			text:     "",
			keywords: []string{"inflation"},
			expected: nil,
		},
		{
			name:     "empty keyword list",
			text:     "some text",
			keywords: nil,
			expected: nil,
		},
		{
			name:     "empty keywords skipped",
			text:     "some text",
			keywords: []string{"", "text"},
			expected: []string{"text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Match(tt.text, tt.keywords))
		})
	}
}

func TestMatched(t *testing.T) {
	assert.True(t, Matched("Hello World", []string{"world"}))
	assert.False(t, Matched("Hello World", []string{"mars"}))
}
