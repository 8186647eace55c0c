package triage

import (
	"fmt"
)

// Vocabulary maps category labels to their positional codes. It is
// immutable once built.
type Vocabulary struct {
	field  string
	labels []string
	index  map[string]int
}

func NewVocabulary(field string, labels []string) (Vocabulary, error) {
	if len(labels) == 0 {
		return Vocabulary{}, fmt.Errorf("%s vocabulary is empty", field)
	}
	index := make(map[string]int, len(labels))
	copied := make([]string, len(labels))
	for i, label := range labels {
		if _, dup := index[label]; dup {
			return Vocabulary{}, fmt.Errorf("%s vocabulary repeats %q", field, label)
		}
		index[label] = i
		copied[i] = label
	}
	return Vocabulary{field: field, labels: copied, index: index}, nil
}

func (v Vocabulary) Field() string { return v.field }

func (v Vocabulary) Len() int { return len(v.labels) }

// Encode returns the code of value or an UnknownCategoryError.
func (v Vocabulary) Encode(value string) (int, error) {
	code, ok := v.index[value]
	if !ok {
		return 0, UnknownCategoryError{Field: v.field, Value: value}
	}
	return code, nil
}

// EncodeOrFirst returns the code of value, or the code of the first
// vocabulary entry when value is unseen.
func (v Vocabulary) EncodeOrFirst(value string) int {
	if code, ok := v.index[value]; ok {
		return code
	}
	return 0
}

func (v Vocabulary) Decode(code int) (string, error) {
	if code < 0 || code >= len(v.labels) {
		return "", fmt.Errorf("%s code %d out of range [0,%d)", v.field, code, len(v.labels))
	}
	return v.labels[code], nil
}

func (v Vocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}
