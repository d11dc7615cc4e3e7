package types

import "strings"

// League identifies a competition by the short key used in API routes.
type League string

const (
	LeaguePremierLeague   League = "epl"
	LeagueLaLiga          League = "laliga"
	LeagueChampionsLeague League = "ucl"
)

// leagueProviderIDs maps league keys to the upstream provider's numeric ids.
var leagueProviderIDs = map[League]int{
	LeaguePremierLeague:   39,
	LeagueLaLiga:          140,
	LeagueChampionsLeague: 2,
}

// ParseLeague normalizes a route key. The boolean is false for unknown keys.
func ParseLeague(key string) (League, bool) {
	league := League(strings.ToLower(strings.TrimSpace(key)))
	if _, ok := leagueProviderIDs[league]; !ok {
		return "", false
	}
	return league, true
}

// ProviderID returns the upstream provider's id for the league, or 0 if unknown.
func (l League) ProviderID() int {
	return leagueProviderIDs[l]
}
