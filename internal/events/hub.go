// Package events публикует изменения состояния обменов внутри процесса.
// Доставка уведомлений (push, email) - забота внешнего подписчика.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/logging"
)

// Размер буфера канала подписчика
const subscriberBufferSize = 64

// EventType определяет тип события
type EventType string

const (
	EventTradeCreated   EventType = "trade_created"
	EventTradeAccepted  EventType = "trade_accepted"
	EventTradeRejected  EventType = "trade_rejected"
	EventTradeCancelled EventType = "trade_cancelled"
	EventTradeConfirmed EventType = "trade_confirmed"
	EventTradeCompleted EventType = "trade_completed"
	EventMessageSent    EventType = "message_sent"
)

// Event - изменение состояния обмена, адресованное обеим сторонам
type Event struct {
	Type        EventType `json:"type"`
	TradeID     uuid.UUID `json:"trade_id"`
	Status      string    `json:"status,omitempty"`
	ActorID     uuid.UUID `json:"actor_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	MessageID   uuid.UUID `json:"message_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher - то, что нужно сервисам ядра
type Publisher interface {
	Publish(event Event)
}

type subscriber struct {
	id     uuid.UUID
	userID uuid.UUID
	ch     chan Event
}

// Hub хранит подписчиков по пользователям и раздаёт им события
type Hub struct {
	subscribers map[uuid.UUID]*subscriber
	userSubs    map[uuid.UUID]map[uuid.UUID]bool // userID -> set[subscriberID]
	mu          sync.RWMutex
	logger      logging.Logger
}

// NewHub создает новый экземпляр Hub
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]*subscriber),
		userSubs:    make(map[uuid.UUID]map[uuid.UUID]bool),
		logger:      logger,
	}
}

// Subscribe регистрирует подписчика пользователя. Возвращает канал событий
// и функцию отписки, которая закрывает канал.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{
		id:     uuid.New(),
		userID: userID,
		ch:     make(chan Event, subscriberBufferSize),
	}

	h.mu.Lock()
	h.subscribers[sub.id] = sub
	if _, exists := h.userSubs[userID]; !exists {
		h.userSubs[userID] = make(map[uuid.UUID]bool)
	}
	h.userSubs[userID][sub.id] = true
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.remove(sub.id) })
	}
}

func (h *Hub) remove(subID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, exists := h.subscribers[subID]
	if !exists {
		return
	}

	if subs, ok := h.userSubs[sub.userID]; ok {
		delete(subs, subID)
		// Последний подписчик пользователя - удаляем запись пользователя
		if len(subs) == 0 {
			delete(h.userSubs, sub.userID)
		}
	}
	delete(h.subscribers, subID)
	close(sub.ch)
}

// Publish отправляет событие подписчикам обеих сторон обмена.
// Не блокируется: если буфер подписчика заполнен, событие для него теряется.
// Событие без подписчиков пишется в лог, как у LogPublisher.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribed := 0
	for _, userID := range recipientsOf(event) {
		for subID := range h.userSubs[userID] {
			subscribed++
			sub := h.subscribers[subID]
			select {
			case sub.ch <- event:
			default:
				h.logger.Warn("subscriber buffer full, event dropped",
					"subscriber_id", subID, "user_id", userID, "event_type", event.Type, "trade_id", event.TradeID)
			}
		}
	}

	if subscribed == 0 {
		LogPublisher{Logger: h.logger}.Publish(event)
	}
}

func recipientsOf(event Event) []uuid.UUID {
	if event.RequesterID == event.RecipientID {
		return []uuid.UUID{event.RequesterID}
	}
	return []uuid.UUID{event.RequesterID, event.RecipientID}
}

// Shutdown закрывает все подписки
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		close(sub.ch)
	}
	h.subscribers = make(map[uuid.UUID]*subscriber)
	h.userSubs = make(map[uuid.UUID]map[uuid.UUID]bool)
}

// LogPublisher пишет события в лог, когда хаб не нужен
type LogPublisher struct {
	Logger logging.Logger
}

func (p LogPublisher) Publish(event Event) {
	p.Logger.Info("trade event", "type", event.Type, "trade_id", event.TradeID, "status", event.Status, "actor_id", event.ActorID)
}
