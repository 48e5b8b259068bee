package transform

import (
	"sort"

	"github.com/ppiankov/fundus/internal/model"
)

// MultiHot encodes per-record label values as boolean rows over a sorted
// vocabulary. Missing values give all-false rows and scalars count as
// singleton sets.
func MultiHot(values []model.Value) ([][]bool, []string) {
	sets := make([]map[string]struct{}, len(values))
	seen := make(map[string]struct{})

	for i, v := range values {
		set := make(map[string]struct{})
		for _, item := range v.Items() {
			label := item.Text()
			set[label] = struct{}{}
			seen[label] = struct{}{}
		}
		sets[i] = set
	}

	vocabulary := make([]string, 0, len(seen))
	for label := range seen {
		vocabulary = append(vocabulary, label)
	}
	sort.Strings(vocabulary)

	index := make(map[string]int, len(vocabulary))
	for i, label := range vocabulary {
		index[label] = i
	}

	matrix := make([][]bool, len(values))
	for i, set := range sets {
		row := make([]bool, len(vocabulary))
		for label := range set {
			row[index[label]] = true
		}
		matrix[i] = row
	}

	return matrix, vocabulary
}
