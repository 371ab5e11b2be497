// Package board holds the shared data model of the game engine: teams,
// sessions, field types and their configuration, and the event record used
// as the audit trail for every mutation.
package board

import (
	"fmt"

	"github.com/partyhub/board-server/internal/game/barrier"
)

// Phase represents the lifecycle phase of a game session.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseContentAnnounced
	PhaseQuestionActive
	PhaseDiceRolling
	PhaseFieldMinigamePending
	PhaseFieldMinigameActive
	PhaseFieldMinigameDone
	PhaseRoundOver
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseSetup:                "SETUP",
	PhaseContentAnnounced:     "CONTENT_ANNOUNCED",
	PhaseQuestionActive:       "QUESTION_ACTIVE",
	PhaseDiceRolling:          "DICE_ROLLING",
	PhaseFieldMinigamePending: "FIELD_MINIGAME_PENDING",
	PhaseFieldMinigameActive:  "FIELD_MINIGAME_ACTIVE",
	PhaseFieldMinigameDone:    "FIELD_MINIGAME_DONE",
	PhaseRoundOver:            "ROUND_OVER",
	PhaseFinished:             "FINISHED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// ParsePhase maps a stored phase name back to its enum value.
func ParsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return PhaseSetup, fmt.Errorf("unknown phase %q", s)
}

// FieldType identifies the kind of board field at a position.
type FieldType int

const (
	FieldNormal FieldType = iota
	FieldStart
	FieldGoal
	FieldCatapultForward
	FieldCatapultBackward
	FieldPlayerSwap
	FieldBarrier
	FieldMinigame
)

var fieldTypeNames = map[FieldType]string{
	FieldNormal:           "normal",
	FieldStart:            "start",
	FieldGoal:             "goal",
	FieldCatapultForward:  "catapult_forward",
	FieldCatapultBackward: "catapult_backward",
	FieldPlayerSwap:       "player_swap",
	FieldBarrier:          "barrier",
	FieldMinigame:         "minigame",
}

func (ft FieldType) String() string {
	if name, ok := fieldTypeNames[ft]; ok {
		return name
	}
	return fmt.Sprintf("field_%d", int(ft))
}

// ParseFieldType maps a stored field type name back to its enum value.
func ParseFieldType(s string) (FieldType, error) {
	for ft, name := range fieldTypeNames {
		if name == s {
			return ft, nil
		}
	}
	return FieldNormal, fmt.Errorf("unknown field type %q", s)
}

// FrequencyType is the rule class deciding which positions a field type
// wants on the board.
type FrequencyType int

const (
	FreqDefault FrequencyType = iota
	FreqModulo
	FreqFixedPositions
	FreqProbability
)

var frequencyTypeNames = map[FrequencyType]string{
	FreqDefault:        "default",
	FreqModulo:         "modulo",
	FreqFixedPositions: "fixed_positions",
	FreqProbability:    "probability",
}

func (f FrequencyType) String() string {
	if name, ok := frequencyTypeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("frequency_%d", int(f))
}

// ParseFrequencyType maps a stored frequency type name back to its enum
// value.
func ParseFrequencyType(s string) (FrequencyType, error) {
	for f, name := range frequencyTypeNames {
		if name == s {
			return f, nil
		}
	}
	return FreqDefault, fmt.Errorf("unknown frequency type %q", s)
}

// FieldTypeConfig describes how one field type claims board positions and
// the type-specific parameters its effect handler needs.
type FieldTypeConfig struct {
	Type      FieldType
	Enabled   bool
	Frequency FrequencyType
	Value     int // modulo divisor or probability percentage

	// Catapult / swap distances.
	MinDistance int
	MaxDistance int

	// Barrier release condition, in the compact condition language.
	TargetCondition string

	// Literal positions for FreqFixedPositions.
	Positions []int
}

// Team is one token on the shared board.
type Team struct {
	ID       int64
	Name     string
	Members  []string
	Position int

	// Placement of the last mini-game, 1-based; 0 when unplaced.
	Placement int

	// Sides of the one-shot bonus die granted by mini-game placement.
	// 0 means no bonus die.
	BonusDieSides int

	// Round index of the team's last accepted dice roll. Compared against
	// GameSession.Round to reject duplicate rolls within one round.
	LastRolledRound int

	// Release condition while the team sits on a barrier. A team is
	// blocked exactly when this is non-nil.
	BarrierCondition *barrier.Condition
}

// Blocked reports whether the team must roll a qualifying total before it
// may move again.
func (t *Team) Blocked() bool {
	return t.BarrierCondition != nil
}

// Block puts the team behind a barrier with the given release condition.
func (t *Team) Block(c barrier.Condition) {
	t.BarrierCondition = &c
}

// Unblock clears the barrier state.
func (t *Team) Unblock() {
	t.BarrierCondition = nil
}

// FieldMinigameState tracks an in-flight field mini-game from the moment a
// team lands on a minigame field until the round resumes.
type FieldMinigameState struct {
	LandingTeamID int64
	ContentID     string
	ContentTitle  string
	Result        string // "won" or "lost", empty while unresolved

	// Team to hand the turn to once the mini-game concludes; 0 when the
	// landing team was the last roller of the round.
	NextTeamID int64

	// Players drawn per involved team for this mini-game.
	SelectedPlayers map[int64][]string
}

// GameSession is the per-evening game state. Exactly one session is active
// at a time.
type GameSession struct {
	ID     int64
	Active bool
	Phase  Phase

	// Round counts completed announce→dice cycles; incremented when a
	// dice round starts.
	Round int

	// TurnOrder is the roll order for the current dice round, a
	// permutation of the round-start team ids.
	TurnOrder []int64

	// CurrentTurnTeamID is the team expected to roll next; 0 between
	// rounds.
	CurrentTurnTeamID int64

	ContentName        string
	ContentDescription string

	// IDs of mini-game content already played this session.
	PlayedContentIDs []string

	// Per-team, per-player count of mini-game participations, used for
	// fair rotation draws.
	PlayerRotation map[int64]map[string]int

	FieldMinigame *FieldMinigameState
}

// ContentPlayed reports whether the given content id was already used this
// session.
func (s *GameSession) ContentPlayed(id string) bool {
	for _, played := range s.PlayedContentIDs {
		if played == id {
			return true
		}
	}
	return false
}

// MarkContentPlayed records a content id as used.
func (s *GameSession) MarkContentPlayed(id string) {
	if id == "" || s.ContentPlayed(id) {
		return
	}
	s.PlayedContentIDs = append(s.PlayedContentIDs, id)
}

// NextInTurnOrder returns the team after the given one in the roll order
// and whether the given team was the last of the round. The second team id
// is 0 when the order is empty or the team is unknown.
func (s *GameSession) NextInTurnOrder(teamID int64) (next int64, last bool) {
	for i, id := range s.TurnOrder {
		if id == teamID {
			if i == len(s.TurnOrder)-1 {
				return 0, true
			}
			return s.TurnOrder[i+1], false
		}
	}
	return 0, true
}
