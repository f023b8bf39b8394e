package encoder

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LabelEncoder is a fitted, immutable label<->index mapping. Classes are the
// sorted unique values seen at fit time; a class's index is its position.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder fits an encoder over values. Duplicates are collapsed and
// the remaining classes are sorted in byte order, so refitting the same
// multiset always yields the same assignment.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return newLabelEncoder(classes)
}

func newLabelEncoder(classes []string) *LabelEncoder {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return &LabelEncoder{classes: classes, index: idx}
}

// Transform returns the index of v and whether v was seen at fit time.
func (e *LabelEncoder) Transform(v string) (int, bool) {
	i, ok := e.index[v]
	return i, ok
}

// Index returns the index of v, falling back to 0 for values not seen at fit
// time. An unseen value is therefore indistinguishable from Classes()[0].
func (e *LabelEncoder) Index(v string) int {
	if i, ok := e.index[v]; ok {
		return i
	}
	return 0
}

// Inverse returns the class at index i.
func (e *LabelEncoder) Inverse(i int) (string, error) {
	if i < 0 || i >= len(e.classes) {
		return "", fmt.Errorf("encoder: class index %d out of range [0,%d)", i, len(e.classes))
	}
	return e.classes[i], nil
}

// Classes returns a copy of the fitted classes in index order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len returns the number of fitted classes.
func (e *LabelEncoder) Len() int { return len(e.classes) }

type labelEncoderJSON struct {
	Classes []string `json:"classes"`
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(labelEncoderJSON{Classes: e.classes})
}

// UnmarshalJSON restores the encoder verbatim. The persisted order is
// authoritative and is not re-sorted.
func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var in labelEncoderJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(in.Classes))
	for _, c := range in.Classes {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("encoder: duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	*e = *newLabelEncoder(in.Classes)
	return nil
}
