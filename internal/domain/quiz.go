package domain

import "time"

// QuestionType selects how an answer is compared with the correct one.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"
)

type QuizQuestion struct {
	ID            string       `json:"id"`
	Question      string       `json:"question" validate:"required"`
	Type          QuestionType `json:"type" validate:"required,oneof=multiple-choice true-false short-answer"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer" validate:"required"`
	Explanation   string       `json:"explanation,omitempty"`
	Category      string       `json:"category"`
	Difficulty    Difficulty   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Points        int          `json:"points" validate:"min=0"`
}

type Quiz struct {
	ID          string         `json:"id"`
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Questions   []QuizQuestion `json:"questions" validate:"min=1,dive"`
	// TimeLimit is in minutes. Nil means untimed.
	TimeLimit    *int          `json:"timeLimit,omitempty" validate:"omitempty,min=1"`
	PassingScore int           `json:"passingScore" validate:"min=0,max=100"`
	Created      time.Time     `json:"created"`
	Attempts     []QuizAttempt `json:"attempts"`
}

// Question returns the question with the given id.
func (q Quiz) Question(id string) (QuizQuestion, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return QuizQuestion{}, false
}

// QuizAttempt is one submitted pass through a quiz. Attempts are never modified once stored.
type QuizAttempt struct {
	ID        string            `json:"id"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Answers   map[string]string `json:"answers"`
	Score     int               `json:"score"`
	TimeSpent int               `json:"timeSpent"`
	Passed    bool              `json:"passed"`
}
