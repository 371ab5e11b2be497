package board

import (
	"math/rand"
	"testing"

	"github.com/partyhub/board-server/internal/game/barrier"
)

func TestTeamBlockUnblock(t *testing.T) {
	team := &Team{ID: 1, Name: "Red"}
	if team.Blocked() {
		t.Fatal("fresh team should not be blocked")
	}

	team.Block(barrier.Parse("5+"))
	if !team.Blocked() {
		t.Fatal("team should be blocked after Block")
	}
	if team.BarrierCondition.Mode != barrier.ModeMinimum {
		t.Errorf("condition mode = %v, want minimum", team.BarrierCondition.Mode)
	}

	team.Unblock()
	if team.Blocked() {
		t.Fatal("team should not be blocked after Unblock")
	}
	if team.BarrierCondition != nil {
		t.Error("condition should be cleared on unblock")
	}
}

func TestNextInTurnOrder(t *testing.T) {
	s := &GameSession{TurnOrder: []int64{3, 1, 2}}

	next, last := s.NextInTurnOrder(3)
	if next != 1 || last {
		t.Errorf("after 3: got (%d, %v), want (1, false)", next, last)
	}
	next, last = s.NextInTurnOrder(1)
	if next != 2 || last {
		t.Errorf("after 1: got (%d, %v), want (2, false)", next, last)
	}
	next, last = s.NextInTurnOrder(2)
	if next != 0 || !last {
		t.Errorf("after 2: got (%d, %v), want (0, true)", next, last)
	}
	next, last = s.NextInTurnOrder(99)
	if next != 0 || !last {
		t.Errorf("unknown team: got (%d, %v), want (0, true)", next, last)
	}
}

func TestContentPlayedTracking(t *testing.T) {
	s := &GameSession{}
	if s.ContentPlayed("c1") {
		t.Fatal("nothing played yet")
	}
	s.MarkContentPlayed("c1")
	s.MarkContentPlayed("c1")
	s.MarkContentPlayed("")
	if !s.ContentPlayed("c1") {
		t.Fatal("c1 should be marked played")
	}
	if len(s.PlayedContentIDs) != 1 {
		t.Errorf("played ids = %v, want exactly one entry", s.PlayedContentIDs)
	}
}

func TestDrawPlayersPrefersLeastPlayed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := &GameSession{}
	team := &Team{ID: 1, Members: []string{"anna", "ben", "cara"}}

	seen := make(map[string]int)
	for i := 0; i < 9; i++ {
		picked := s.DrawPlayers(rng, team, 1)
		if len(picked) != 1 {
			t.Fatalf("draw %d: got %d players, want 1", i, len(picked))
		}
		seen[picked[0]]++
	}
	// Nine single draws over three members must land exactly three each.
	for _, name := range team.Members {
		if seen[name] != 3 {
			t.Errorf("player %s drawn %d times, want 3 (seen: %v)", name, seen[name], seen)
		}
	}
}

func TestDrawPlayersClampsCount(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := &GameSession{}
	team := &Team{ID: 1, Members: []string{"solo"}}

	picked := s.DrawPlayers(rng, team, 5)
	if len(picked) != 1 || picked[0] != "solo" {
		t.Errorf("got %v, want [solo]", picked)
	}
	if got := s.DrawPlayers(rng, team, 0); got != nil {
		t.Errorf("count 0 should draw nobody, got %v", got)
	}
}

func TestEventBusTypedDelivery(t *testing.T) {
	bus := NewEventBus()

	var all, typed int
	bus.Subscribe(func(Event) { all++ })
	handle := bus.SubscribeTyped(EventDiceRolled, func(Event) { typed++ })

	bus.Publish(NewEvent(EventDiceRolled, 1, 2, 1))
	bus.Publish(NewEvent(EventTeamMoved, 1, 2, 1))

	if all != 2 {
		t.Errorf("all listener saw %d events, want 2", all)
	}
	if typed != 1 {
		t.Errorf("typed listener saw %d events, want 1", typed)
	}

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventDiceRolled, 1, 2, 1))
	if typed != 1 {
		t.Errorf("typed listener saw %d events after unsubscribe, want 1", typed)
	}
}

func TestEnumRoundTrips(t *testing.T) {
	p, err := ParsePhase(PhaseFieldMinigamePending.String())
	if err != nil || p != PhaseFieldMinigamePending {
		t.Errorf("phase round trip: got %v, %v", p, err)
	}
	if _, err := ParsePhase("BOGUS"); err == nil {
		t.Error("expected error for unknown phase")
	}

	ft, err := ParseFieldType("catapult_backward")
	if err != nil || ft != FieldCatapultBackward {
		t.Errorf("field type round trip: got %v, %v", ft, err)
	}

	f, err := ParseFrequencyType("probability")
	if err != nil || f != FreqProbability {
		t.Errorf("frequency round trip: got %v, %v", f, err)
	}
}
