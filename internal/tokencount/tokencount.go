// Package tokencount estimates the token cost of prompt text.
package tokencount

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter reports how many tokens a piece of text costs.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens against a real BPE vocabulary.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter for the given encoding name,
// defaulting to cl100k_base. Loading the vocabulary may require network
// access on first use; callers should fall back to NewEstimatedCounter when
// this fails.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimatedCounter approximates tokens from character count using the same
// fixed ratio the budgeter uses to convert budgets from tokens to characters.
type EstimatedCounter struct {
	CharsPerToken int
}

// NewEstimatedCounter creates an EstimatedCounter with the standard
// four-characters-per-token ratio.
func NewEstimatedCounter() *EstimatedCounter {
	return &EstimatedCounter{CharsPerToken: 4}
}

func (c *EstimatedCounter) Count(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = 4
	}
	runes := utf8.RuneCountInString(text)
	return (runes + ratio - 1) / ratio
}
