package board

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a game event.
type EventType string

const (
	// Session lifecycle events
	EventSessionStarted EventType = "SESSION_STARTED"
	EventSessionEnded   EventType = "SESSION_ENDED"
	EventGameWon        EventType = "GAME_WON"

	// Round events
	EventContentAnnounced EventType = "CONTENT_ANNOUNCED"
	EventQuestionAsked    EventType = "QUESTION_ASKED"
	EventDiceRoundStarted EventType = "DICE_ROUND_STARTED"
	EventRoundCompleted   EventType = "ROUND_COMPLETED"

	// Mini-game events
	EventPlacementsRecorded EventType = "PLACEMENTS_RECORDED"
	EventBonusDieAwarded    EventType = "BONUS_DIE_AWARDED"

	// Dice events
	EventDiceRolled   EventType = "DICE_ROLLED"
	EventTurnRejected EventType = "TURN_REJECTED"

	// Movement events
	EventTeamMoved        EventType = "TEAM_MOVED"
	EventCatapultForward  EventType = "CATAPULT_FORWARD"
	EventCatapultBackward EventType = "CATAPULT_BACKWARD"
	EventPlayerSwap       EventType = "PLAYER_SWAP"

	// Barrier events
	EventBarrierRaised   EventType = "BARRIER_RAISED"
	EventBarrierBlocked  EventType = "BARRIER_BLOCKED"
	EventBarrierReleased EventType = "BARRIER_RELEASED"

	// Field mini-game events
	EventFieldMinigameTriggered EventType = "FIELD_MINIGAME_TRIGGERED"
	EventFieldMinigameStarted   EventType = "FIELD_MINIGAME_STARTED"
	EventFieldMinigameResolved  EventType = "FIELD_MINIGAME_RESOLVED"

	// Board events
	EventBoardRegenerated EventType = "BOARD_REGENERATED"
)

// Event represents a state change recorded in the audit trail. Listeners on
// the bus receive every published event; the repository persists them.
type Event struct {
	ID        string
	Type      EventType
	SessionID int64
	TeamID    int64 // 0 when the event is not about a single team
	Round     int
	Data      map[string]any
	Timestamp time.Time
}

// NewEvent creates an event with a fresh id and timestamp.
func NewEvent(eventType EventType, sessionID, teamID int64, round int) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		TeamID:    teamID,
		Round:     round,
		Data:      make(map[string]any),
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	listener := TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	}
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], listener)
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}

	if typedListeners, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typedListeners {
			listener.Callback(event)
		}
	}
}
