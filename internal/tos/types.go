// Package tos manages Table-of-Specification blueprints: versioned curriculum
// outlines listing topics, their weights, and the expected Bloom-level
// distribution for a subject.
package tos

import (
	"time"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

// Topic is one row of a Table of Specification.
type Topic struct {
	Title     string              `yaml:"title" json:"title"`
	Weight    float64             `yaml:"weight" json:"weight"` // fraction of the exam, e.g. 0.40
	BloomDist map[bloom.Level]int `yaml:"bloom_dist" json:"bloom_dist"`
}

// TOS is a versioned Table of Specification for a subject. At most one
// version per subject is active at a time.
type TOS struct {
	ID          string    `yaml:"id" json:"id"`
	SubjectID   string    `yaml:"subject_id" json:"subject_id"`
	SubjectName string    `yaml:"subject_name" json:"subject_name"`
	Topics      []Topic   `yaml:"topics" json:"topics"`
	Active      bool      `yaml:"active" json:"active"`
	CreatedAt   time.Time `yaml:"-" json:"created_at"`
}

// FirstTopic returns the first listed topic title, or "" for an empty TOS.
// The classifier uses it as the fallback tag for unmatched content.
func (t *TOS) FirstTopic() string {
	if len(t.Topics) == 0 {
		return ""
	}
	return t.Topics[0].Title
}

// TopicTitles returns the ordered topic titles.
func (t *TOS) TopicTitles() []string {
	titles := make([]string, len(t.Topics))
	for i, topic := range t.Topics {
		titles[i] = topic.Title
	}
	return titles
}
