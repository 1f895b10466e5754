package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wlantray/fritz-wlan/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventWLANState     EventType = "wlan_state"     // WLAN state observed or changed
	EventError         EventType = "error"          // Router call failed
	EventConfigChanged EventType = "config_changed" // Router config saved
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// WLANStateEvent reports the radio state after a switch or status query.
type WLANStateEvent struct {
	BaseEvent
	Enabled bool
	Changed bool   // true when produced by a switch operation
	Message string // user-facing result text
	SSID    string
}

// ErrorEvent represents a failed router operation
type ErrorEvent struct {
	BaseEvent
	Operation string // "switch_on", "switch_off", "status"
	Message   string // user-facing text
	Error     error
}

// ConfigChangedEvent is published after the router config is saved.
type ConfigChangedEvent struct {
	BaseEvent
	RouterIP string
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. Events for a
// subscriber whose buffer is full are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishWLANState is a convenience method for publishing WLAN state events
func (eb *EventBus) PublishWLANState(enabled, changed bool, message, ssid string) {
	eb.Publish(&WLANStateEvent{
		BaseEvent: BaseEvent{
			EventType: EventWLANState,
			Time:      time.Now(),
		},
		Enabled: enabled,
		Changed: changed,
		Message: message,
		SSID:    ssid,
	})
}

// PublishError is a convenience method for publishing error events
func (eb *EventBus) PublishError(operation, message string, err error) {
	eb.Publish(&ErrorEvent{
		BaseEvent: BaseEvent{
			EventType: EventError,
			Time:      time.Now(),
		},
		Operation: operation,
		Message:   message,
		Error:     err,
	})
}

// PublishConfigChanged is a convenience method for publishing config changes
func (eb *EventBus) PublishConfigChanged(routerIP string) {
	eb.Publish(&ConfigChangedEvent{
		BaseEvent: BaseEvent{
			EventType: EventConfigChanged,
			Time:      time.Now(),
		},
		RouterIP: routerIP,
	})
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
