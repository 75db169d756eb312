package service

import (
	"testing"

	"github.com/cloo-solutions/loretexai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "empty query",
			query:    "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			query:    "   \t\n  ",
			expected: nil,
		},
		{
			name:     "lowercases tokens",
			query:    "Neural Network",
			expected: []string{"neural", "network"},
		},
		{
			name:     "strips punctuation",
			query:    "what's a neural-network, really?",
			expected: []string{"what", "neural", "network", "really"},
		},
		{
			name:     "drops single character tokens",
			query:    "a b neural c",
			expected: []string{"neural"},
		},
		{
			name:     "deduplicates preserving first-seen order",
			query:    "network neural network",
			expected: []string{"network", "neural"},
		},
		{
			name:     "keeps digits",
			query:    "gpt 4o models",
			expected: []string{"gpt", "4o", "models"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TokenizeQuery(tt.query))
		})
	}
}

func TestScoreFields(t *testing.T) {
	cfg := DefaultScoreConfig()

	t.Run("empty tokens scores zero", func(t *testing.T) {
		score := ScoreFields("Neural Networks", "neural neural neural", []string{"neural"}, nil, cfg)
		assert.Zero(t, score)
	})

	t.Run("title outweighs content", func(t *testing.T) {
		tokens := TokenizeQuery("neural")
		titleHit := ScoreFields("Neural Networks", "nothing relevant", nil, tokens, cfg)
		contentHit := ScoreFields("Unrelated", "a neural mention", nil, tokens, cfg)
		assert.Greater(t, titleHit, contentHit)
		assert.GreaterOrEqual(t, titleHit, 2*contentHit)
	})

	t.Run("tags count heavily", func(t *testing.T) {
		tokens := TokenizeQuery("classification")
		tagged := ScoreFields("Untitled", "", []string{"classification", "ml"}, tokens, cfg)
		body := ScoreFields("Untitled", "classification", nil, tokens, cfg)
		assert.Greater(t, tagged, body)
	})

	t.Run("counts repeated occurrences", func(t *testing.T) {
		tokens := TokenizeQuery("neural")
		once := ScoreFields("", "neural", nil, tokens, cfg)
		thrice := ScoreFields("", "neural neural neural", nil, tokens, cfg)
		assert.Equal(t, 3*once, thrice)
	})

	t.Run("case insensitive matching", func(t *testing.T) {
		tokens := TokenizeQuery("neural")
		assert.Equal(t,
			ScoreFields("NEURAL", "NeUrAl", nil, tokens, cfg),
			ScoreFields("neural", "neural", nil, tokens, cfg),
		)
	})
}

func TestRankEntries(t *testing.T) {
	cfg := DefaultScoreConfig()

	entries := []*domain.Entry{
		{ID: "cooking", Title: "Cooking Recipes", Content: "Pasta and sauces."},
		{ID: "ml", Title: "Machine Learning", Content: "Neural networks excel at classification tasks."},
		{ID: "style", Title: "Style Guide", Content: "Writing conventions."},
	}

	t.Run("empty query preserves original order", func(t *testing.T) {
		ranked := RankEntries(entries, "", cfg)
		require.Len(t, ranked, 3)
		assert.Equal(t, "cooking", ranked[0].ID)
		assert.Equal(t, "ml", ranked[1].ID)
		assert.Equal(t, "style", ranked[2].ID)
	})

	t.Run("whitespace query preserves original order", func(t *testing.T) {
		ranked := RankEntries(entries, "   ", cfg)
		assert.Equal(t, "cooking", ranked[0].ID)
	})

	t.Run("relevant entry ranks first", func(t *testing.T) {
		ranked := RankEntries(entries, "neural network classification", cfg)
		assert.Equal(t, "ml", ranked[0].ID)
	})

	t.Run("ties keep original relative order", func(t *testing.T) {
		tied := []*domain.Entry{
			{ID: "first", Title: "Alpha", Content: "nothing"},
			{ID: "second", Title: "Beta", Content: "nothing"},
			{ID: "hit", Title: "Neural", Content: "neural"},
		}
		ranked := RankEntries(tied, "neural", cfg)
		assert.Equal(t, "hit", ranked[0].ID)
		assert.Equal(t, "first", ranked[1].ID)
		assert.Equal(t, "second", ranked[2].ID)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		ranked := RankEntries(entries, "neural", cfg)
		assert.Equal(t, "cooking", entries[0].ID)
		assert.NotSame(t, &entries[0], &ranked[0])
	})

	t.Run("returns the same entry pointers", func(t *testing.T) {
		ranked := RankEntries(entries, "neural", cfg)
		assert.Same(t, entries[1], ranked[0])
	})
}
