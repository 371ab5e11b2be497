package field

import (
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/board"
)

func testResolver(seed int64) *Resolver {
	return NewResolver(zap.NewNop(), rand.New(rand.NewSource(seed)))
}

func defaultConfigs() []board.FieldTypeConfig {
	return []board.FieldTypeConfig{
		{Type: board.FieldCatapultForward, Enabled: true, Frequency: board.FreqModulo, Value: 10, MinDistance: 3, MaxDistance: 5},
		{Type: board.FieldCatapultBackward, Enabled: true, Frequency: board.FreqModulo, Value: 12, MinDistance: 4, MaxDistance: 10},
		{Type: board.FieldPlayerSwap, Enabled: true, Frequency: board.FreqProbability, Value: 8, MinDistance: 3},
		{Type: board.FieldBarrier, Enabled: true, Frequency: board.FreqModulo, Value: 9, TargetCondition: "4,5,6"},
		{Type: board.FieldMinigame, Enabled: true, Frequency: board.FreqModulo, Value: 15},
	}
}

func TestComputeCoversEveryPosition(t *testing.T) {
	for _, size := range []int{10, 37, 73, 100} {
		dist := testResolver(42).Compute(defaultConfigs(), size)
		if dist.Size != size {
			t.Fatalf("size %d: dist.Size = %d", size, dist.Size)
		}
		if dist.Type(0) != board.FieldStart {
			t.Errorf("size %d: position 0 = %v, want start", size, dist.Type(0))
		}
		if dist.Type(size-1) != board.FieldGoal {
			t.Errorf("size %d: position %d = %v, want goal", size, size-1, dist.Type(size-1))
		}
		m := dist.Map()
		if len(m) != size {
			t.Errorf("size %d: mapping has %d entries", size, len(m))
		}
	}
}

func TestModuloCandidatesDoubleDensity(t *testing.T) {
	r := testResolver(1)
	cfg := board.FieldTypeConfig{Type: board.FieldBarrier, Enabled: true, Frequency: board.FreqModulo, Value: 10}
	got := r.Candidates(cfg, 41)

	// Both p%10==0 and (p+5)%10==0 qualify, so 5,10,15,... inside 1..39.
	want := []int{5, 10, 15, 20, 25, 30, 35}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestModuloZeroDivisorSkipped(t *testing.T) {
	r := testResolver(1)
	cfg := board.FieldTypeConfig{Type: board.FieldBarrier, Enabled: true, Frequency: board.FreqModulo, Value: 0}
	if got := r.Candidates(cfg, 73); got != nil {
		t.Errorf("divisor 0 should yield no candidates, got %v", got)
	}
}

func TestFixedPositionsFilteredToInterior(t *testing.T) {
	r := testResolver(1)
	cfg := board.FieldTypeConfig{
		Type:      board.FieldPlayerSwap,
		Enabled:   true,
		Frequency: board.FreqFixedPositions,
		Positions: []int{0, 5, 12, 72, 99, -3},
	}
	got := r.Candidates(cfg, 73)
	want := []int{5, 12}
	if len(got) != len(want) || got[0] != 5 || got[1] != 12 {
		t.Errorf("candidates = %v, want %v", got, want)
	}
}

func TestComputeDeterministicWithSeed(t *testing.T) {
	a := testResolver(99).Compute(defaultConfigs(), 73)
	b := testResolver(99).Compute(defaultConfigs(), 73)
	for p := 0; p < 73; p++ {
		if a.Type(p) != b.Type(p) {
			t.Fatalf("position %d differs between identical seeds: %v vs %v", p, a.Type(p), b.Type(p))
		}
	}
}

func TestConflictsRedistributeNearby(t *testing.T) {
	// Two types claiming the same single position: one wins it, the loser
	// must end up on a neighboring free position.
	configs := []board.FieldTypeConfig{
		{Type: board.FieldCatapultForward, Enabled: true, Frequency: board.FreqFixedPositions, Value: 10, Positions: []int{20}},
		{Type: board.FieldBarrier, Enabled: true, Frequency: board.FreqFixedPositions, Value: 20, Positions: []int{20}},
	}
	dist := testResolver(3).Compute(configs, 73)

	fwd := dist.Positions(board.FieldCatapultForward)
	bar := dist.Positions(board.FieldBarrier)
	if len(fwd) != 1 || len(bar) != 1 {
		t.Fatalf("expected one position each, got forward=%v barrier=%v", fwd, bar)
	}
	winner, loser := fwd[0], bar[0]
	if winner != 20 && loser != 20 {
		t.Errorf("neither type kept the contested position: forward=%v barrier=%v", fwd, bar)
	}
	other := fwd[0]
	if other == 20 {
		other = bar[0]
	}
	if d := other - 20; d < -9 || d > 9 || d == 0 {
		t.Errorf("redistributed position %d is not within 9 fields of 20", other)
	}
}

func TestDisabledConfigsIgnored(t *testing.T) {
	configs := []board.FieldTypeConfig{
		{Type: board.FieldBarrier, Enabled: false, Frequency: board.FreqFixedPositions, Positions: []int{10}},
	}
	dist := testResolver(1).Compute(configs, 30)
	if got := dist.Positions(board.FieldBarrier); got != nil {
		t.Errorf("disabled config still produced positions %v", got)
	}
	if dist.Type(10) != board.FieldNormal {
		t.Errorf("position 10 = %v, want normal", dist.Type(10))
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	if _, ok := c.Get(73); ok {
		t.Fatal("empty cache should miss")
	}
	dist := testResolver(5).Compute(defaultConfigs(), 73)
	c.Set(dist)
	got, ok := c.Get(73)
	if !ok || got != dist {
		t.Fatal("cache should return the stored distribution")
	}
	c.Invalidate()
	if _, ok := c.Get(73); ok {
		t.Fatal("cache should miss after invalidation")
	}
}

func TestOutOfRangeTypeIsNormal(t *testing.T) {
	dist := testResolver(1).Compute(nil, 10)
	if dist.Type(-1) != board.FieldNormal || dist.Type(10) != board.FieldNormal {
		t.Error("out-of-range positions should report normal")
	}
}
