package app

import (
	"strconv"
	"strings"

	"mini-lms/internal/domain"
)

// Grade scores answers against a definition. Missing or non-integer answers count as
// incorrect. The score is the percentage of correct answers rounded half up.
func Grade(def domain.QuizDefinition, answers domain.Answers) domain.GradeResult {
	total := len(def.Questions)
	if total == 0 {
		return domain.GradeResult{Score: 0, Passed: 0 >= def.PassingScore}
	}

	correct := 0
	for i, q := range def.Questions {
		raw, ok := answers[i]
		if !ok {
			continue
		}
		selected, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		if selected == q.CorrectIndex {
			correct++
		}
	}

	// round(correct/total*100) half up, in integers
	score := (correct*2*domain.MaxScore + total) / (2 * total)
	return domain.GradeResult{Score: score, Passed: score >= def.PassingScore}
}
