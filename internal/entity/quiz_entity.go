package entity

import "time"

type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz groups generated questions by category.
type Quiz struct {
	MultipleChoice []QuizQuestion `json:"multiple_choice"`
	TrueFalse      []QuizQuestion `json:"true_false"`
	ShortAnswer    []QuizQuestion `json:"short_answer"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

func (q *Quiz) QuestionCount() int {
	return len(q.MultipleChoice) + len(q.TrueFalse) + len(q.ShortAnswer)
}

type ConceptBreakdown struct {
	Concept string `json:"concept"`
	Detail  string `json:"detail"`
	Example string `json:"example,omitempty"`
}

// Explanation is either plain text or a structured concept breakdown,
// depending on what the backend produced. At least one of the two is set.
type Explanation struct {
	Text     string             `json:"text,omitempty"`
	Concepts []ConceptBreakdown `json:"concepts,omitempty"`
}
