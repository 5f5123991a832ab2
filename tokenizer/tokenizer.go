// Package tokenizer counts tokens for prompt budgeting. The Simple counter
// approximates well enough for trimming; the tiktoken-backed adapter under
// contrib/tokenizer gives exact counts for OpenAI models.
package tokenizer

import (
	"unicode"

	"github.com/sweetpotato0/reportflow/message"
)

// Tokenizer counts tokens in text.
type Tokenizer interface {
	CountTokens(text string) int
}

// Simple splits on the same boundaries most BPE vocabularies respect:
// letter/digit runs stay together, Han characters and punctuation stand
// alone.
type Simple struct{}

func NewSimple() *Simple { return &Simple{} }

func (s *Simple) CountTokens(text string) int {
	var count int
	var inRun bool
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			inRun = false
		case unicode.Is(unicode.Han, r):
			count++
			inRun = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inRun {
				count++
				inRun = true
			}
		default:
			count++
			inRun = false
		}
	}
	return count
}

// TrimMessages drops the oldest messages until the history fits the budget.
// The newest message always survives, even when it alone exceeds the budget.
func TrimMessages(t Tokenizer, msgs []*message.Message, budget int) []*message.Message {
	if len(msgs) == 0 || budget <= 0 {
		return msgs[:0]
	}
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := t.CountTokens(msgs[i].Content)
		if total+cost > budget && start < len(msgs) {
			break
		}
		total += cost
		start = i
	}
	return msgs[start:]
}

// CountMessages sums token counts over a history.
func CountMessages(t Tokenizer, msgs []*message.Message) int {
	var total int
	for _, m := range msgs {
		total += t.CountTokens(m.Content)
	}
	return total
}
