// Package field computes the assignment of special field types to board
// positions and caches the result per board size.
package field

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/board"
)

// Distribution is an immutable mapping of board position to field type.
// Position 0 is always the start field and position Size-1 the goal.
type Distribution struct {
	Size  int
	types []board.FieldType
}

// Type returns the field type at the given position. Out-of-range positions
// report a normal field.
func (d *Distribution) Type(pos int) board.FieldType {
	if pos < 0 || pos >= d.Size {
		return board.FieldNormal
	}
	return d.types[pos]
}

// Positions returns all positions carrying the given field type.
func (d *Distribution) Positions(ft board.FieldType) []int {
	var out []int
	for p, t := range d.types {
		if t == ft {
			out = append(out, p)
		}
	}
	return out
}

// Map returns a copy of the full position to type mapping.
func (d *Distribution) Map() map[int]board.FieldType {
	out := make(map[int]board.FieldType, d.Size)
	for p, t := range d.types {
		out[p] = t
	}
	return out
}

type claim struct {
	fieldType board.FieldType
	weight    float64
}

// Resolver turns field type configurations into a full board distribution.
type Resolver struct {
	logger *zap.Logger
	rng    *rand.Rand
}

// NewResolver creates a resolver drawing randomness from the given source.
func NewResolver(logger *zap.Logger, rng *rand.Rand) *Resolver {
	return &Resolver{logger: logger, rng: rng}
}

// Candidates returns the board positions the given config wants, limited to
// the interior of the board (start and goal are never claimed). Unparsable
// configs yield no candidates instead of failing the computation.
func (r *Resolver) Candidates(cfg board.FieldTypeConfig, size int) []int {
	interior := func(p int) bool { return p > 0 && p < size-1 }

	switch cfg.Frequency {
	case board.FreqFixedPositions:
		var out []int
		for _, p := range cfg.Positions {
			if interior(p) {
				out = append(out, p)
			}
		}
		sort.Ints(out)
		return out

	case board.FreqModulo:
		if cfg.Value <= 0 {
			r.logger.Warn("skipping modulo config with non-positive divisor",
				zap.String("field_type", cfg.Type.String()),
				zap.Int("value", cfg.Value))
			return nil
		}
		var out []int
		for p := 1; p < size-1; p++ {
			if p%cfg.Value == 0 || (p+cfg.Value/2)%cfg.Value == 0 {
				out = append(out, p)
			}
		}
		return out

	case board.FreqProbability:
		pct := cfg.Value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		var out []int
		for p := 1; p < size-1; p++ {
			if r.rng.Float64() < float64(pct)/100.0 {
				out = append(out, p)
			}
		}
		return out

	default:
		return nil
	}
}

// Compute builds the distribution for the given board size. Every position
// receives exactly one type: claimed positions per config candidates,
// conflicts decided by weighted random choice, under-assigned types
// redistributed to nearby free positions, the rest normal.
func (r *Resolver) Compute(configs []board.FieldTypeConfig, size int) *Distribution {
	dist := &Distribution{
		Size:  size,
		types: make([]board.FieldType, size),
	}
	if size < 2 {
		return dist
	}

	// Deterministic config order so equal inputs claim in the same sequence.
	ordered := make([]board.FieldTypeConfig, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Enabled && cfg.Type != board.FieldNormal && cfg.Type != board.FieldStart && cfg.Type != board.FieldGoal {
			ordered = append(ordered, cfg)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Type < ordered[j].Type })

	wanted := make(map[board.FieldType][]int, len(ordered))
	claims := make(map[int][]claim, size)
	for _, cfg := range ordered {
		candidates := r.Candidates(cfg, size)
		wanted[cfg.Type] = candidates
		freq := cfg.Value
		if freq < 1 {
			freq = 1
		}
		for _, p := range candidates {
			claims[p] = append(claims[p], claim{
				fieldType: cfg.Type,
				weight:    1000.0 / float64(freq),
			})
		}
	}

	claimed := make([]int, 0, len(claims))
	for p := range claims {
		claimed = append(claimed, p)
	}
	sort.Ints(claimed)

	assigned := make(map[int]board.FieldType, len(claims))
	for _, p := range claimed {
		cs := claims[p]
		if len(cs) == 1 {
			assigned[p] = cs[0].fieldType
			continue
		}
		assigned[p] = r.pickWeighted(cs)
	}

	// Types that lost conflicts get their missing positions moved to the
	// nearest free interior position.
	for _, cfg := range ordered {
		for _, p := range wanted[cfg.Type] {
			if assigned[p] == cfg.Type {
				continue
			}
			if alt, ok := nearestFree(assigned, p, size); ok {
				assigned[alt] = cfg.Type
			}
		}
	}

	for p := 1; p < size-1; p++ {
		if t, ok := assigned[p]; ok {
			dist.types[p] = t
		} else {
			dist.types[p] = board.FieldNormal
		}
	}
	dist.types[0] = board.FieldStart
	dist.types[size-1] = board.FieldGoal

	r.logger.Debug("field distribution computed",
		zap.Int("board_size", size),
		zap.Int("special_positions", len(assigned)))
	return dist
}

func (r *Resolver) pickWeighted(cs []claim) board.FieldType {
	var total float64
	for _, c := range cs {
		total += c.weight
	}
	roll := r.rng.Float64() * total
	for _, c := range cs {
		roll -= c.weight
		if roll < 0 {
			return c.fieldType
		}
	}
	return cs[len(cs)-1].fieldType
}

// nearestFree searches outward from pos, up to nine fields in each
// direction, for an unclaimed interior position.
func nearestFree(assigned map[int]board.FieldType, pos, size int) (int, bool) {
	for d := 1; d <= 9; d++ {
		for _, alt := range []int{pos - d, pos + d} {
			if alt <= 0 || alt >= size-1 {
				continue
			}
			if _, taken := assigned[alt]; !taken {
				return alt, true
			}
		}
	}
	return 0, false
}
