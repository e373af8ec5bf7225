package reservation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MaxQuestionID bounds the ids that can be encoded; the wire format has one
// slot per id up to the largest.
const MaxQuestionID = 1 << 16

// AnswerSet records yes/no answers keyed by question id. It is a value type:
// SetAnswer returns a new set and never modifies the receiver, so any earlier
// snapshot stays valid.
type AnswerSet struct {
	m map[int64]bool
}

// SetAnswer returns a copy of a with the answer for questionID set to value.
func (a AnswerSet) SetAnswer(questionID int64, value bool) AnswerSet {
	m := make(map[int64]bool, len(a.m)+1)
	for k, v := range a.m {
		m[k] = v
	}
	m[questionID] = value
	return AnswerSet{m: m}
}

// Get reports the recorded value and whether the question was answered at all.
func (a AnswerSet) Get(questionID int64) (value, answered bool) {
	value, answered = a.m[questionID]
	return value, answered
}

func (a AnswerSet) Len() int { return len(a.m) }

// Snapshot returns a copy of the recorded answers.
func (a AnswerSet) Snapshot() map[int64]bool {
	out := make(map[int64]bool, len(a.m))
	for k, v := range a.m {
		out[k] = v
	}
	return out
}

// IDs returns the answered question ids in ascending order.
func (a AnswerSet) IDs() []int64 {
	ids := make([]int64, 0, len(a.m))
	for k := range a.m {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// positional returns the answers as a slice indexed by question id.
// Unanswered slots are nil. Negative ids have no position and are left out.
func (a AnswerSet) positional() ([]*bool, error) {
	var n int64
	for k := range a.m {
		if k > MaxQuestionID {
			return nil, fmt.Errorf("question id %d: %w", k, ErrQuestionIDRange)
		}
		if k >= n {
			n = k + 1
		}
	}
	out := make([]*bool, n)
	for k, v := range a.m {
		if k < 0 {
			continue
		}
		v := v
		out[k] = &v
	}
	return out, nil
}

// Encode returns the JSON array sent as answers[]: one slot per question id,
// null where the question was never answered, e.g. [null,true,null,false].
func (a AnswerSet) Encode() (string, error) {
	slots, err := a.positional()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAnswers parses the answers[] encoding back into a positional slice.
func DecodeAnswers(s string) ([]*bool, error) {
	var out []*bool
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
