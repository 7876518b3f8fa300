package quiz

import (
	"math"
	"strings"

	"github.com/conorfennell/studynotes/internal/domain"
)

// Correct reports whether answer is right for q. Short answers ignore case
// and surrounding whitespace; other types must match exactly.
func Correct(q domain.QuizQuestion, answer string) bool {
	if q.Type == domain.ShortAnswer {
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
	}
	return answer == q.CorrectAnswer
}

// Score returns the points-weighted percentage of answers that are correct,
// rounded to the nearest integer. A quiz worth no points scores 0.
func Score(quiz domain.Quiz, answers map[string]string) int {
	var earned, total int
	for _, q := range quiz.Questions {
		total += q.Points
		if answer, ok := answers[q.ID]; ok && Correct(q, answer) {
			earned += q.Points
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(earned) / float64(total) * 100))
}
