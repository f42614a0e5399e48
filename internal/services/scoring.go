package services

import (
	"math"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
)

// ScoringResult is the outcome of auto-scoring one answer set.
type ScoringResult struct {
	// ObjectiveScore is the 0-100 percentage of the catalog's objective
	// questions answered correctly. Nil when the catalog has no objective
	// questions.
	ObjectiveScore   *float64
	ObjectiveTotal   int
	ObjectiveCorrect int

	// Answers carries the per-answer correctness flags, in input order.
	Answers []ScoredAnswer
}

// ScoredAnswer is one submitted answer with its computed correctness.
// IsCorrect stays nil for subjective questions.
type ScoredAnswer struct {
	QuestionID uint
	Text       *string
	ImageURL   *string
	IsCorrect  *bool
}

// ScoreAnswers grades an answer set against a question catalog. It is a pure
// function: objective answers are correct only on exact, case-sensitive
// string equality with the catalog's correct answer; no trimming or
// normalization. The denominator is the catalog's objective-question count,
// so an objective question the student never answered counts as incorrect.
// The score is percentage-based and ignores point values. Answers referencing
// questions outside the catalog are passed through unscored.
func ScoreAnswers(answers []models.SubmittedAnswerDTO, catalog map[uint]*models.Question) ScoringResult {
	result := ScoringResult{
		Answers: make([]ScoredAnswer, 0, len(answers)),
	}

	for _, question := range catalog {
		if question.Kind == models.QuestionKindObjective {
			result.ObjectiveTotal++
		}
	}

	// A question counts correct at most once, whatever the answer rows say.
	correctByQuestion := make(map[uint]bool)

	for _, answer := range answers {
		scored := ScoredAnswer{
			QuestionID: answer.QuestionID,
			Text:       answer.Text,
			ImageURL:   answer.ImageURL,
		}

		question, ok := catalog[answer.QuestionID]
		if ok && question.Kind == models.QuestionKindObjective {
			correct := answer.Text != nil &&
				question.CorrectAnswer != nil &&
				*answer.Text == *question.CorrectAnswer
			scored.IsCorrect = boolPtr(correct)

			if correct {
				correctByQuestion[answer.QuestionID] = true
			}
		}

		result.Answers = append(result.Answers, scored)
	}
	result.ObjectiveCorrect = len(correctByQuestion)

	if result.ObjectiveTotal > 0 {
		score := math.Round(float64(result.ObjectiveCorrect) / float64(result.ObjectiveTotal) * 100)
		result.ObjectiveScore = floatPtr(score)
	}

	return result
}

func boolPtr(b bool) *bool {
	return &b
}

func floatPtr(f float64) *float64 {
	return &f
}
