package tos

import (
	"fmt"
	"strings"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// DefaultPromptMaxChars bounds the TOS block embedded in a generation prompt.
const DefaultPromptMaxChars = 1000

// PromptText flattens the TOS into the compact text block embedded in the AI
// prompt: subject name plus one line per topic with its weight and expected
// Bloom distribution. Output longer than maxChars is truncated; pass 0 to use
// DefaultPromptMaxChars.
func (t *TOS) PromptText(maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultPromptMaxChars
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", t.SubjectName)
	for _, topic := range t.Topics {
		fmt.Fprintf(&b, "- %s (weight %.0f%%)", topic.Title, topic.Weight*100)
		if len(topic.BloomDist) > 0 {
			var parts []string
			for _, level := range bloom.Levels() {
				if n, ok := topic.BloomDist[level]; ok {
					parts = append(parts, fmt.Sprintf("%s: %d", level, n))
				}
			}
			fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
		}
		b.WriteByte('\n')
	}

	out := b.String()
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}
