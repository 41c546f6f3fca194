package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"mini-lms/internal/domain"
)

var errBadAnswers = errors.New("answers must be an object keyed by question index or an array")

// parseAnswers accepts {"0": 1, "1": "2"} or [1, 2]. Entries that are not a number or a
// string are dropped and grade as incorrect.
func parseAnswers(raw json.RawMessage) (domain.Answers, error) {
	answers := domain.Answers{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return answers, nil
	}

	switch trimmed[0] {
	case '{':
		var byKey map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &byKey); err != nil {
			return nil, errBadAnswers
		}
		for k, v := range byKey {
			idx, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil || idx < 0 {
				continue
			}
			if s, ok := answerText(v); ok {
				answers[idx] = s
			}
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errBadAnswers
		}
		for idx, v := range list {
			if s, ok := answerText(v); ok {
				answers[idx] = s
			}
		}
	default:
		return nil, errBadAnswers
	}
	return answers, nil
}

func answerText(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", false
	}
	if _, err := n.Int64(); err == nil {
		return n.String(), true
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return n.String(), true
	}
	return strconv.FormatInt(int64(f), 10), true
}
