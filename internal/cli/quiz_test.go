package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cliQuiz = `{"passing_score": 70, "questions": [
	{"question": "a", "choices": ["x", "y"], "answer": 1},
	{"question": "b", "choices": ["x", "y"], "answer": 0},
	{"question": "c", "choices": ["x", "y", "z"], "answer": 2},
	{"question": "d", "choices": ["w", "x", "y", "z"], "answer": 3}
]}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "quiz.json")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestQuizValidateCommand(t *testing.T) {
	out, _, err := run(t, "quiz", "validate", writeFile(t, cliQuiz))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "4 questions") {
		t.Fatalf("unexpected output %q", out)
	}

	_, errOut, err := run(t, "quiz", "validate", writeFile(t, `{"passing_score": 50, "questions": [{"question": "a", "choices": ["x"], "answer": 0}]}`))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(errOut, "questions[0].choices") {
		t.Fatalf("expected field path in output, got %q", errOut)
	}
}

func TestQuizEvaluateCommand(t *testing.T) {
	file := writeFile(t, cliQuiz)

	out, _, err := run(t, "quiz", "evaluate", file, "--answers", "1,0,2,1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if strings.TrimSpace(out) != `{"score":75,"passed":true}` {
		t.Fatalf("unexpected result %q", out)
	}

	out, _, err = run(t, "quiz", "evaluate", file, "--answers", "1,1,1,1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if strings.TrimSpace(out) != `{"score":25,"passed":false}` {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestQuizEvaluateKeepsMalformedQuestion(t *testing.T) {
	file := writeFile(t, `{"passing_score": 50, "questions": [{"question": "a", "choices": ["x", "y"], "answer": 1}, 5]}`)

	out, _, err := run(t, "quiz", "evaluate", file, "--answers", "1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if strings.TrimSpace(out) != `{"score":50,"passed":true}` {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestSplitAnswers(t *testing.T) {
	got := splitAnswers("1,, 2")
	if len(got) != 2 || got[0] != "1" || got[2] != "2" {
		t.Fatalf("unexpected answers %v", got)
	}
}
