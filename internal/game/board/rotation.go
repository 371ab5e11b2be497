package board

import (
	"math/rand"
	"sort"
)

// DrawPlayers picks count players from the team for a mini-game, preferring
// players with the fewest prior participations this session and breaking
// ties randomly. The session's rotation counters are updated for every
// drawn player.
func (s *GameSession) DrawPlayers(rng *rand.Rand, team *Team, count int) []string {
	if count <= 0 || len(team.Members) == 0 {
		return nil
	}
	if count > len(team.Members) {
		count = len(team.Members)
	}
	if s.PlayerRotation == nil {
		s.PlayerRotation = make(map[int64]map[string]int)
	}
	counts := s.PlayerRotation[team.ID]
	if counts == nil {
		counts = make(map[string]int)
		s.PlayerRotation[team.ID] = counts
	}

	pool := make([]string, len(team.Members))
	copy(pool, team.Members)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	sort.SliceStable(pool, func(i, j int) bool {
		return counts[pool[i]] < counts[pool[j]]
	})

	picked := pool[:count]
	for _, name := range picked {
		counts[name]++
	}
	out := make([]string, count)
	copy(out, picked)
	return out
}
