package app_test

import (
	"testing"

	"mini-lms/internal/app"
	"mini-lms/internal/domain"
)

func fourQuestions(passing int) domain.QuizDefinition {
	return domain.QuizDefinition{
		PassingScore: passing,
		Questions: []domain.Question{
			{Text: "q1", Choices: []string{"a", "b"}, CorrectIndex: 1},
			{Text: "q2", Choices: []string{"a", "b"}, CorrectIndex: 0},
			{Text: "q3", Choices: []string{"a", "b", "c"}, CorrectIndex: 2},
			{Text: "q4", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 3},
		},
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name    string
		def     domain.QuizDefinition
		answers domain.Answers
		score   int
		passed  bool
	}{
		{name: "three of four", def: fourQuestions(70), answers: domain.Answers{0: "1", 1: "0", 2: "2", 3: "1"}, score: 75, passed: true},
		{name: "one of four", def: fourQuestions(70), answers: domain.Answers{0: "1", 1: "1", 2: "1", 3: "1"}, score: 25, passed: false},
		{name: "all correct", def: fourQuestions(70), answers: domain.Answers{0: "1", 1: "0", 2: "2", 3: "3"}, score: 100, passed: true},
		{name: "no answers", def: fourQuestions(70), answers: domain.Answers{}, score: 0, passed: false},
		{name: "unparseable answers are wrong", def: fourQuestions(0), answers: domain.Answers{0: "b", 1: "", 2: " 2 "}, score: 25, passed: true},
		{name: "fractional and decimal text are not truncated", def: fourQuestions(0), answers: domain.Answers{0: "1.5", 1: "0.0", 2: "2.0", 3: "3"}, score: 25, passed: true},
		{name: "answers beyond questions ignored", def: fourQuestions(70), answers: domain.Answers{7: "1", 0: "1"}, score: 25, passed: false},
		{name: "passing score boundary", def: fourQuestions(75), answers: domain.Answers{0: "1", 1: "0", 2: "2"}, score: 75, passed: true},
		{name: "empty quiz passes at zero threshold", def: domain.QuizDefinition{PassingScore: 0}, score: 0, passed: true},
		{name: "empty quiz fails at positive threshold", def: domain.QuizDefinition{PassingScore: 1}, score: 0, passed: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := app.Grade(tc.def, tc.answers)
			if got.Score != tc.score || got.Passed != tc.passed {
				t.Fatalf("got %+v, want score=%d passed=%v", got, tc.score, tc.passed)
			}
		})
	}
}

func TestGradeRoundsHalfUp(t *testing.T) {
	def := domain.QuizDefinition{PassingScore: 67}
	for i := 0; i < 3; i++ {
		def.Questions = append(def.Questions, domain.Question{Choices: []string{"a", "b"}, CorrectIndex: 0})
	}
	got := app.Grade(def, domain.Answers{0: "0", 1: "0"})
	if got.Score != 67 || !got.Passed {
		t.Fatalf("2/3 should round to 67 and pass, got %+v", got)
	}

	def.Questions = def.Questions[:0]
	for i := 0; i < 8; i++ {
		def.Questions = append(def.Questions, domain.Question{Choices: []string{"a", "b"}, CorrectIndex: 0})
	}
	// 1/8 = 12.5 -> 13
	if got := app.Grade(def, domain.Answers{0: "0"}); got.Score != 13 {
		t.Fatalf("1/8 should round to 13, got %d", got.Score)
	}
}
