// Package genre turns the ranked tag lists of several tagging models into a
// single coarse genre label.
package genre

import "fmt"

const (
	// ListCount is the number of tag lists, one per tagging model, that
	// every aggregation requires.
	ListCount = 4
)

// Result is the outcome of an aggregation with the ranking that produced it.
type Result struct {
	Genre string `json:"genre" yaml:"genre"`
	// Whitelisted is false when no ranked tag was on the whitelist and the
	// top-scoring tag was used instead.
	Whitelisted bool       `json:"whitelisted" yaml:"whitelisted"`
	Ranked      []TagScore `json:"ranked,omitempty" yaml:"ranked,omitempty"`
}

// Aggregator selects a genre from tag lists. The zero value is not usable;
// create one with NewAggregator. An Aggregator is immutable and can be shared.
type Aggregator struct {
	whitelist whitelistSet
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWhitelist replaces the default whitelist.
func WithWhitelist(list []string) Option {
	return func(a *Aggregator) {
		a.whitelist = newWhitelistSet(list)
	}
}

// NewAggregator returns an Aggregator using Whitelist.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		whitelist: newWhitelistSet(Whitelist),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

var defaultAggregator = NewAggregator()

// Aggregate selects a genre using the default Aggregator.
func Aggregate(lists []TagList) (string, error) {
	return defaultAggregator.Aggregate(lists)
}

// Aggregate returns the title-cased genre for the given tag lists.
func (a *Aggregator) Aggregate(lists []TagList) (string, error) {
	r, err := a.Explain(lists)
	if err != nil {
		return "", err
	}
	return r.Genre, nil
}

// Explain is Aggregate with the ranked score table attached.
func (a *Aggregator) Explain(lists []TagList) (*Result, error) {
	t, err := a.Score(lists)
	if err != nil {
		return nil, err
	}

	ranked := t.Ranked()
	for _, ts := range ranked {
		if a.whitelist.contains(ts.Tag) {
			return &Result{Genre: Title(ts.Tag), Whitelisted: true, Ranked: ranked}, nil
		}
	}

	// validation guarantees at least one tag
	return &Result{Genre: Title(ranked[0].Tag), Ranked: ranked}, nil
}

// Score validates the lists and accumulates them into a new ScoreTable.
func (a *Aggregator) Score(lists []TagList) (*ScoreTable, error) {
	if err := a.validate(lists); err != nil {
		return nil, err
	}

	t := NewScoreTable()
	for _, l := range lists {
		t.AddList(l)
	}
	return t, nil
}

func (a *Aggregator) validate(lists []TagList) error {
	if len(lists) != ListCount {
		return &ValidationError{
			Index:  -1,
			Reason: fmt.Sprintf("expected %d tag lists, got %d", ListCount, len(lists)),
		}
	}

	n := len(lists[0])
	for i, l := range lists {
		if len(l) == 0 {
			return &ValidationError{Index: i, Reason: "no tags", Err: ErrEmptyInput}
		}
		if len(l) != n {
			return &ValidationError{
				Index:  i,
				Reason: fmt.Sprintf("expected %d tags, got %d", n, len(l)),
			}
		}
	}
	return nil
}
