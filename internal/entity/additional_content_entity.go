package entity

type ContentDifficulty string

const (
	DifficultyBeginner     ContentDifficulty = "Beginner"
	DifficultyIntermediate ContentDifficulty = "Intermediate"
	DifficultyAdvanced     ContentDifficulty = "Advanced"
)

// AdditionalContent is a supplementary study-material item derived from note
// summaries. Immutable once created; identity is positional.
type AdditionalContent struct {
	Title         string            `json:"title"`
	Subject       string            `json:"subject"`
	Description   string            `json:"description"`
	Body          string            `json:"body"`
	KeyPoints     []string          `json:"key_points"`
	Difficulty    ContentDifficulty `json:"difficulty"`
	EstimatedTime string            `json:"estimated_time"`
	LastUpdated   string            `json:"last_updated"`
}
