package game

import "errors"

// Validation errors: the referenced entity does not exist. No state change.
var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session")
)

// Turn violations: the request is well-formed but not allowed right now.
// Rejected without state change, recorded in the audit trail.
var (
	ErrNotYourTurn       = errors.New("not this team's turn")
	ErrAlreadyRolled     = errors.New("team already rolled this round")
	ErrWrongPhase        = errors.New("session is not in the required phase")
	ErrNoMinigamePending = errors.New("no field minigame pending")
)

// IsTurnViolation reports whether the error is a rejected-but-valid game
// action, as opposed to a validation or infrastructure failure.
func IsTurnViolation(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrAlreadyRolled) ||
		errors.Is(err, ErrWrongPhase) ||
		errors.Is(err, ErrNoMinigamePending)
}

// IsValidation reports whether the error refers to an unknown entity.
func IsValidation(err error) bool {
	return errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrNoActiveSession)
}
