package rules

// EventType indicates the category of a game event.
type EventType string

const (
	EventTurnStart        EventType = "TURN_START"
	EventTurnEnd          EventType = "TURN_END"
	EventCardDrawn        EventType = "CARD_DRAWN"
	EventCardPlayed       EventType = "CARD_PLAYED"
	EventCardPurchased    EventType = "CARD_PURCHASED"
	EventCardScrapped     EventType = "CARD_SCRAPPED"
	EventCardDiscarded    EventType = "CARD_DISCARDED"
	EventCardUpgraded     EventType = "CARD_UPGRADED"
	EventUnitSpawned      EventType = "UNIT_SPAWNED"
	EventBaseDeployed     EventType = "BASE_DEPLOYED"
	EventAutoDrawTrigger  EventType = "AUTO_DRAW_TRIGGER"
	EventAutoDrawCard     EventType = "AUTO_DRAW_CARD"
	EventAutoDrawComplete EventType = "AUTO_DRAW_COMPLETE"
	EventAttack           EventType = "ATTACK"
	EventBaseDestroyed    EventType = "BASE_DESTROYED"
	EventChoiceRequested  EventType = "CHOICE_REQUESTED"
	EventChoiceResolved   EventType = "CHOICE_RESOLVED"
	EventPlayerEliminated EventType = "PLAYER_ELIMINATED"
	EventGameOver         EventType = "GAME_OVER"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type     EventType
	Turn     int
	PlayerID string // player the event is about
	SourceID string // card instance that caused it, if any
	TargetID string // card instance or player affected, if any
	CardType string // card type id, when a single card is involved
	Amount   int
	Data     string
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, playerID, sourceID, targetID string) Event {
	return Event{
		Type:     eventType,
		PlayerID: playerID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, playerID, sourceID, targetID string, amount int) Event {
	evt := NewEvent(eventType, playerID, sourceID, targetID)
	evt.Amount = amount
	return evt
}

// Listener defines a callback that reacts to incoming events. Listeners must
// not mutate game state.
type Listener func(Event)

type listenerEntry struct {
	handle    int
	eventType EventType // empty means every event
	callback  Listener
}

// EventBus is a synchronous publish/subscribe dispatcher owned by one game.
// It does no locking; the owner serializes access.
type EventBus struct {
	listeners  []listenerEntry
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.add("", listener)
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	return bus.add(eventType, listener)
}

func (bus *EventBus) add(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners = append(bus.listeners, listenerEntry{
		handle:    handle,
		eventType: eventType,
		callback:  listener,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	for i, l := range bus.listeners {
		if l.handle == handle {
			bus.listeners = append(bus.listeners[:i], bus.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (bus *EventBus) Len() int {
	return len(bus.listeners)
}

// Publish delivers the event to matching listeners in registration order.
func (bus *EventBus) Publish(event Event) {
	// Listeners may unsubscribe while being notified.
	snapshot := append([]listenerEntry(nil), bus.listeners...)
	for _, l := range snapshot {
		if l.eventType == "" || l.eventType == event.Type {
			l.callback(event)
		}
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
