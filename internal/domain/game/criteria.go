package game

// Platform is a desktop platform a game can support.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
)

func (p *GamePlatform) Supports(pl Platform) bool {
	if p == nil {
		return false
	}
	switch pl {
	case PlatformWindows:
		return p.Windows
	case PlatformMac:
		return p.Mac
	case PlatformLinux:
		return p.Linux
	default:
		return false
	}
}

// CandidateCriteria is the hard-constraint query the game filter produces.
// Empty slices and zero values mean "no constraint". The repository turns it
// into SQL; Matches applies the same rules in memory.
type CandidateCriteria struct {
	// AnyPlatform requires support for at least one of the listed platforms.
	AnyPlatform           []Platform
	FreeOnly              bool
	MaxRequiredAge        int
	ExcludedDescriptorIDs []int64
	ExcludedGameIDs       []int64
	GenreIDs              []int64
	CategoryIDs           []int64
	Limit                 int
}

func (c CandidateCriteria) Matches(g *Game) bool {
	if g == nil || !g.IsActive {
		return false
	}
	if len(c.AnyPlatform) > 0 {
		ok := false
		for _, pl := range c.AnyPlatform {
			if g.Platforms.Supports(pl) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if c.FreeOnly && !g.IsFree {
		return false
	}
	if c.MaxRequiredAge > 0 && g.RequiredAge > c.MaxRequiredAge {
		return false
	}
	if intersects(g.ContentDescriptorIDs(), c.ExcludedDescriptorIDs) {
		return false
	}
	if contains(c.ExcludedGameIDs, g.ID) {
		return false
	}
	if len(c.GenreIDs) > 0 && !intersects(g.GenreIDs(), c.GenreIDs) {
		return false
	}
	if len(c.CategoryIDs) > 0 && !intersects(g.CategoryIDs(), c.CategoryIDs) {
		return false
	}
	return true
}

func contains(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func intersects(a, b []int64) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[int64]struct{}, len(b))
	for _, x := range b {
		set[x] = struct{}{}
	}
	for _, x := range a {
		if _, ok := set[x]; ok {
			return true
		}
	}
	return false
}
