package pipeline

// Bundle is one generation attempt's worth of learning material, parsed out
// of a single AI completion. Sections that failed validation are absent and
// reported in SectionErrors.
type Bundle struct {
	Summary    string
	Quiz       []BundleQuizItem
	Flashcards []BundleFlashcard

	Truncated     bool // module text was cut to the prompt cap
	Model         string
	TotalTokens   int
	SectionErrors []GenerationError
}

// BundleQuizItem is a quiz question as the model emitted it, alignment hints
// included. The classifier turns the hints into a confirmed tag.
type BundleQuizItem struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	Answer    string   `json:"answer"`
	TopicHint string   `json:"tos_topic_title"`
	BloomHint string   `json:"aligned_bloom_level"`
}

// BundleFlashcard is a flashcard as the model emitted it.
type BundleFlashcard struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	TopicHint string `json:"tos_topic_title"`
	BloomHint string `json:"aligned_bloom_level"`
}
