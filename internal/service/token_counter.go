package service

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

type tiktokenCounter struct {
	codec tokenizer.Codec
}

// ------------------------------------------------------------------------------------------------------
// NewTokenCounter returns a counter using the cl100k_base encoding.
func NewTokenCounter() (TokenCounter, error) {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer: %w", err)
	}
	return &tiktokenCounter{codec: enc}, nil
}

// ------------------------------------------------------------------------------------------------------
func (c *tiktokenCounter) Count(text string) (int, error) {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode content: %w", err)
	}
	return len(ids), nil
}
