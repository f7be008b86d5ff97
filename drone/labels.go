package drone

import (
	"fmt"
	"sort"
	"strings"
)

// LabelEncoder maps string categories onto class indices in alphabetical
// order, so "normal" encodes to 0 and "suspicious" to 1.
type LabelEncoder struct {
	Classes []string `json:"classes"`
	index   map[string]int
}

// NewLabelEncoder collects the distinct labels and sorts them.
func NewLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[normaliseLabel(l)] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	return newEncoderFromClasses(classes)
}

func newEncoderFromClasses(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{Classes: classes, index: index}
}

// Encode maps labels onto their class indices.
func (e *LabelEncoder) Encode(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := e.index[normaliseLabel(l)]
		if !ok {
			return nil, fmt.Errorf("unknown label %q", l)
		}
		out[i] = idx
	}
	return out, nil
}

// Decode returns the label for a class index.
func (e *LabelEncoder) Decode(class int) (string, error) {
	if class < 0 || class >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range", class)
	}
	return e.Classes[class], nil
}

func normaliseLabel(l string) string {
	return strings.ToLower(strings.TrimSpace(l))
}
