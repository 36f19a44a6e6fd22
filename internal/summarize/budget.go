package summarize

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Budget measures summary size. The hard limit is expressed in words and
// enforced by the merge prompt; token counts are logged alongside so budget
// drift is visible in model terms too.
type Budget struct {
	tokenizer *tiktoken.Tiktoken
}

// NewBudget selects a tokenizer for the model, falling back to cl100k_base
// for unknown models.
func NewBudget(model string) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Budget{tokenizer: enc}, nil
}

// Tokens returns the token count for a string.
func (b *Budget) Tokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
