package genre

import "sort"

// TagList is the ranked output of one tagging model, most relevant tag first.
type TagList []string

// TagScore is a tag with its accumulated score.
type TagScore struct {
	Tag   string `json:"tag" yaml:"tag"`
	Score int    `json:"score" yaml:"score"`
}

// ScoreTable accumulates positional weights per tag and remembers the order
// in which tags were first seen. It is not safe for concurrent use; every
// aggregation builds its own.
type ScoreTable struct {
	index  map[string]int
	scores []TagScore
}

// NewScoreTable returns an empty table.
func NewScoreTable() *ScoreTable {
	return &ScoreTable{index: make(map[string]int)}
}

// Add adds weight to tag, inserting it if it was not seen before.
func (t *ScoreTable) Add(tag string, weight int) {
	if i, ok := t.index[tag]; ok {
		t.scores[i].Score += weight
		return
	}
	t.index[tag] = len(t.scores)
	t.scores = append(t.scores, TagScore{Tag: tag, Score: weight})
}

// AddList weights the list N, N-1, ..., 1 by position and accumulates it.
func (t *ScoreTable) AddList(list TagList) {
	w := len(list)
	for _, tag := range list {
		t.Add(tag, w)
		w--
	}
}

// Score returns the accumulated score for tag.
func (t *ScoreTable) Score(tag string) (int, bool) {
	i, ok := t.index[tag]
	if !ok {
		return 0, false
	}
	return t.scores[i].Score, true
}

// Len returns the number of distinct tags.
func (t *ScoreTable) Len() int {
	return len(t.scores)
}

// Ranked returns the tags by descending score. Equal scores keep first-seen order.
func (t *ScoreTable) Ranked() []TagScore {
	ranked := make([]TagScore, len(t.scores))
	copy(ranked, t.scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
