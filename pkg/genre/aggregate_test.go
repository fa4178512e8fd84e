package genre

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disjoint(prefix string, n int) TagList {
	l := make(TagList, n)
	for i := range l {
		l[i] = prefix + string(rune('a'+i))
	}
	return l
}

func TestAggregate_UnanimousTopTag(t *testing.T) {
	lists := []TagList{
		{"rock", "guitar", "male vocals", "loud", "fast"},
		{"rock", "metal", "guitar", "loud", "beat"},
		{"rock", "pop", "guitar", "vocal", "slow"},
		{"rock", "hard rock", "drums", "guitar", "fast"},
	}

	tbl, err := NewAggregator().Score(lists)
	require.NoError(t, err)
	score, ok := tbl.Score("rock")
	require.True(t, ok)
	assert.Equal(t, 4*5, score)
	assert.Equal(t, "rock", tbl.Ranked()[0].Tag)

	g, err := Aggregate(lists)
	require.NoError(t, err)
	assert.Equal(t, "Rock", g)
}

func TestAggregate_CrossModelAgreementBeatsSingleTop(t *testing.T) {
	// N=3: "rock" scores 3 from one list, "jazz" scores 1 in each of four.
	lists := []TagList{
		{"rock", "a1", "jazz"},
		{"b1", "b2", "jazz"},
		{"c1", "c2", "jazz"},
		{"d1", "d2", "jazz"},
	}

	r, err := NewAggregator().Explain(lists)
	require.NoError(t, err)
	assert.Equal(t, "Jazz", r.Genre)
	assert.True(t, r.Whitelisted)
	assert.Equal(t, TagScore{Tag: "jazz", Score: 4}, r.Ranked[0])
}

func TestAggregate_Accumulates(t *testing.T) {
	lists := []TagList{
		{"x1", "pop", "x2", "x3", "x4"},
		{"y1", "y2", "pop", "y3", "y4"},
		disjoint("z", 5),
		disjoint("w", 5),
	}

	tbl, err := NewAggregator().Score(lists)
	require.NoError(t, err)
	score, ok := tbl.Score("pop")
	require.True(t, ok)
	assert.Equal(t, 4+3, score)
	assert.Equal(t, 19, tbl.Len())
}

func TestAggregate_RockExample(t *testing.T) {
	lists := []TagList{
		{"rock", "pop", "x", "y", "z"},
		disjoint("a", 5),
		disjoint("b", 5),
		disjoint("c", 5),
	}

	g, err := Aggregate(lists)
	require.NoError(t, err)
	assert.Equal(t, "Rock", g)
}

func TestAggregate_PicksHighestScoringWhitelistedTag(t *testing.T) {
	// "rock" comes before "pop" in the whitelist but "pop" scores higher.
	lists := []TagList{
		{"beat", "pop", "rock", "loud", "fast"},
		{"pop", "beat", "loud", "rock", "slow"},
		{"pop", "beat", "fast", "slow", "rock"},
		{"beat", "loud", "pop", "fast", "slow"},
	}

	r, err := NewAggregator().Explain(lists)
	require.NoError(t, err)
	// beat=5+4+4+5, pop=4+5+5+3, rock=3+2+1
	assert.Equal(t, "beat", r.Ranked[0].Tag)
	assert.Equal(t, "Pop", r.Genre)
	assert.True(t, r.Whitelisted)
}

func TestAggregate_FallbackToTopTag(t *testing.T) {
	lists := []TagList{
		{"dreamy", "soft", "airy", "calm", "slow"},
		{"atmospheric", "soft", "airy", "calm", "slow"},
		disjoint("q", 5),
		disjoint("r", 5),
	}

	r, err := NewAggregator().Explain(lists)
	require.NoError(t, err)
	assert.False(t, r.Whitelisted)
	// soft=8 beats every single-list top tag (5)
	assert.Equal(t, "Soft", r.Genre)
}

func TestAggregate_FallbackTieBreakIsFirstSeen(t *testing.T) {
	lists := []TagList{
		{"dreamy", "soft"},
		{"atmospheric", "airy"},
		{"mellow", "calm"},
		{"somber", "slow"},
	}

	for i := 0; i < 10; i++ {
		g, err := Aggregate(lists)
		require.NoError(t, err)
		assert.Equal(t, "Dreamy", g)
	}
}

func TestAggregate_WhitelistIsCaseSensitive(t *testing.T) {
	lists := []TagList{
		{"hip-hop", "beat"},
		{"hip-hop", "beat"},
		{"Rock", "beat"},
		{"Rock", "Hip-Hop"},
	}

	r, err := NewAggregator().Explain(lists)
	require.NoError(t, err)
	// hip-hop=4 and beat=3 are not whitelisted, "Rock" is not "rock",
	// only "Hip-Hop" (1) matches exactly.
	assert.Equal(t, "Hip-Hop", r.Genre)
	assert.True(t, r.Whitelisted)

	tbl, err := NewAggregator().Score(lists)
	require.NoError(t, err)
	lower, _ := tbl.Score("hip-hop")
	upper, _ := tbl.Score("Hip-Hop")
	assert.Equal(t, 4, lower)
	assert.Equal(t, 1, upper)
}

func TestAggregate_Idempotent(t *testing.T) {
	lists := []TagList{
		{"electronic", "techno", "beat", "dance", "fast"},
		{"techno", "electronic", "dance", "beat", "synth"},
		{"dance", "beat", "techno", "electronic", "house"},
		{"beat", "dance", "electronic", "techno", "loud"},
	}

	a := NewAggregator()
	first, err := a.Explain(lists)
	require.NoError(t, err)
	second, err := a.Explain(lists)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregate_Validation(t *testing.T) {
	five := disjoint("t", 5)
	tests := []struct {
		name  string
		lists []TagList
		empty bool
	}{
		{"nil", nil, false},
		{"three lists", []TagList{five, five, five}, false},
		{"five lists", []TagList{five, five, five, five, five}, false},
		{"empty first list", []TagList{{}, five, five, five}, true},
		{"empty last list", []TagList{five, five, five, nil}, true},
		{"all empty", []TagList{{}, {}, {}, {}}, true},
		{"inconsistent length", []TagList{five, five, disjoint("u", 4), five}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Aggregate(tt.lists)
			require.Error(t, err)
			assert.Empty(t, g)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.empty, errors.Is(err, ErrEmptyInput))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Error())
		})
	}
}

func TestAggregator_WithWhitelist(t *testing.T) {
	a := NewAggregator(WithWhitelist([]string{"shoegaze"}))

	g, err := a.Aggregate([]TagList{
		{"rock", "shoegaze"},
		{"rock", "loud"},
		{"rock", "loud"},
		{"rock", "loud"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shoegaze", g)

	for _, n := range []int{1, 2, 3, 5} {
		lists := make([]TagList, n)
		for i := range lists {
			lists[i] = TagList{"shoegaze"}
		}
		_, err = a.Aggregate(lists)
		assert.ErrorIs(t, err, ErrValidation, n)
	}
}

func TestAggregator_ConcurrentUse(t *testing.T) {
	lists := []TagList{
		{"rock", "pop"},
		{"pop", "rock"},
		{"rock", "jazz"},
		{"jazz", "rock"},
	}

	a := NewAggregator()
	done := make(chan string, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			g, err := a.Aggregate(lists)
			if err != nil {
				done <- err.Error()
				return
			}
			done <- g
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, "Rock", <-done)
	}
}

func TestWhitelist_Verbatim(t *testing.T) {
	assert.Len(t, Whitelist, 61)
	assert.Equal(t, "classical", Whitelist[0])
	assert.Equal(t, "House", Whitelist[len(Whitelist)-1])
	assert.Contains(t, Whitelist, "Progressive rock")
	assert.Contains(t, Whitelist, "Mellow")
}

func TestTitle(t *testing.T) {
	// matches Python str.title() except after apostrophes
	tests := map[string]string{
		"00s":              "00S",
		"80s":              "80S",
		"rock'n'roll":      "Rock'n'roll",
		"rock":             "Rock",
		"hip-hop":          "Hip-Hop",
		"new age":          "New Age",
		"Progressive rock": "Progressive Rock",
		"HOUSE":            "House",
		"indie pop":        "Indie Pop",
	}

	for in, want := range tests {
		assert.Equal(t, want, Title(in), in)
	}
}
