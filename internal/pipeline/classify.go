package pipeline

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/cognify-app/cognify-backend/internal/bloom"
	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

var fold = cases.Fold()

// Classify assigns a TOS topic and Bloom level to one generated fragment.
// The model's own alignment hints win when they name a real topic and a real
// level. Otherwise the fragment text is matched against topic titles, and
// when nothing matches the item is tagged with the first topic, flagged as a
// fallback. A resolvable level hint is kept even on the fallback path; only
// an absent or unparseable hint defaults to the lowest level. Defaults are
// always logged, never silent.
func Classify(fragment, topicHint, bloomHint string, t *tos.TOS) content.Tag {
	level, err := bloom.Parse(bloomHint)
	if err != nil {
		level = bloom.Remembering
		if strings.TrimSpace(bloomHint) != "" {
			slog.Warn("unparseable bloom hint",
				"subject_id", t.SubjectID,
				"bloom_hint", bloomHint,
			)
		}
	}

	if topic, ok := matchTopic(topicHint, t); ok {
		return content.Tag{Topic: topic, Bloom: level}
	}

	if topic, ok := keywordMatch(fragment, t); ok {
		return content.Tag{Topic: topic, Bloom: level}
	}

	tag := content.Tag{Topic: t.FirstTopic(), Bloom: level, Fallback: true}
	slog.Warn("classification fallback",
		"subject_id", t.SubjectID,
		"topic", tag.Topic,
		"topic_hint", topicHint,
		"fragment_len", len(fragment),
	)
	return tag
}

// matchTopic resolves a hint to a TOS topic title by case-folded equality.
func matchTopic(hint string, t *tos.TOS) (string, bool) {
	hint = fold.String(strings.TrimSpace(hint))
	if hint == "" {
		return "", false
	}
	for _, topic := range t.Topics {
		if fold.String(topic.Title) == hint {
			return topic.Title, true
		}
	}
	return "", false
}

// keywordMatch scores each topic by how many of its title words appear in
// the fragment and returns the best scorer. Short words are skipped so "of"
// and "the" cannot carry a match.
func keywordMatch(fragment string, t *tos.TOS) (string, bool) {
	folded := fold.String(fragment)

	best := ""
	bestScore := 0
	for _, topic := range t.Topics {
		score := 0
		for _, word := range strings.Fields(fold.String(topic.Title)) {
			if len(word) < 4 {
				continue
			}
			if strings.Contains(folded, word) {
				score++
			}
		}
		if score > bestScore {
			best = topic.Title
			bestScore = score
		}
	}
	return best, bestScore > 0
}
