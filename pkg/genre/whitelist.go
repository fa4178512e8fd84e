package genre

// Whitelist is the ordered set of coarse genre labels preferred over arbitrary
// descriptive tags. Matching is exact and case-sensitive, so entries keep the
// casing the tagging models emit (e.g. "Hip-Hop", "Mellow", "House").
var Whitelist = []string{
	"classical",
	"techno",
	"strings",
	"drums",
	"electronic",
	"rock",
	"piano",
	"ambient",
	"violin",
	"vocal",
	"synth",
	"indian",
	"opera",
	"harpsichord",
	"flute",
	"pop",
	"sitar",
	"classic",
	"choir",
	"new age",
	"dance",
	"harp",
	"cello",
	"country",
	"metal",
	"choral",
	"alternative",
	"indie",
	"00s",
	"alternative rock",
	"jazz",
	"chillout",
	"classic rock",
	"soul",
	"indie rock",
	"Mellow",
	"electronica",
	"80s",
	"folk",
	"90s",
	"chill",
	"instrumental",
	"punk",
	"oldies",
	"blues",
	"hard rock",
	"acoustic",
	"experimental",
	"Hip-Hop",
	"70s",
	"party",
	"easy listening",
	"funk",
	"electro",
	"heavy metal",
	"Progressive rock",
	"60s",
	"rnb",
	"indie pop",
	"sad",
	"House",
}

type whitelistSet map[string]struct{}

func newWhitelistSet(list []string) whitelistSet {
	s := make(whitelistSet, len(list))
	for _, g := range list {
		s[g] = struct{}{}
	}
	return s
}

func (s whitelistSet) contains(tag string) bool {
	_, ok := s[tag]
	return ok
}
