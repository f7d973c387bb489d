package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is pushed to subscribers. It only says that something under Topic changed;
// clients refetch the full state.
type Event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
}

// EventRefresh is the only event type sent today.
const EventRefresh = "refresh"

// UserTopic is the private topic of one member (notifications, messages).
func UserTopic(uid string) string { return "user:" + uid }

// PostTopic carries changes of one post and its comments.
func PostTopic(postID string) string { return "post:" + postID }

type subscription struct {
	client *Client
	topic  string
	on     bool
}

// Hub maintains the set of active clients and their topic subscriptions.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Topic -> subscribed clients.
	topics map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	publish    chan Event

	// done is closed when Run returns; senders stop waiting on it.
	done chan struct{}

	log zerolog.Logger

	// mu guards the counters read from other goroutines.
	mu          sync.RWMutex
	clientCount int
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		publish:    make(chan Event, 256),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

// Run processes hub operations until ctx is cancelled. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Info().Msg("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			h.log.Info().Msg("websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			// Every member hears about its own notifications.
			h.add(client, UserTopic(client.UserID))
			h.log.Debug().Str("user", client.UserID).Int("connections", len(h.clients)).Msg("client registered")

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				h.log.Debug().Str("user", client.UserID).Int("connections", len(h.clients)).Msg("client unregistered")
			}

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			if sub.on {
				h.add(sub.client, sub.topic)
			} else {
				h.drop(sub.client, sub.topic)
			}

		case event := <-h.publish:
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Str("topic", event.Topic).Msg("encode event")
				continue
			}
			for client := range h.topics[event.Topic] {
				select {
				case client.Send <- payload:
				default:
					h.log.Warn().Str("user", client.UserID).Str("topic", event.Topic).Msg("send buffer full, event dropped")
				}
			}
		}
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Add registers client and subscribes it to its user topic. It returns false when
// the hub has stopped.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Remove unregisters client. After the hub stopped it returns at once; shutdown
// already released every client.
func (h *Hub) Remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a refresh event for topic. Delivery is best effort.
func (h *Hub) Publish(topic string) {
	select {
	case h.publish <- Event{Topic: topic, Type: EventRefresh}:
	case <-h.done:
	case <-time.After(time.Second):
		h.log.Warn().Str("topic", topic).Msg("timeout queuing event, hub busy")
	}
}

// Subscribe adds client to topic. Members may only follow post topics and their own user topic.
func (h *Hub) Subscribe(client *Client, topic string) bool {
	if !client.mayFollow(topic) {
		return false
	}
	select {
	case h.subscribe <- subscription{client: client, topic: topic, on: true}:
		return true
	case <-h.done:
		return false
	}
}

// Unsubscribe removes client from topic.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	select {
	case h.subscribe <- subscription{client: client, topic: topic, on: false}:
	case <-h.done:
	}
}

// Connections returns the number of registered clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientCount
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.clientCount = n
	h.mu.Unlock()
}

func (h *Hub) add(client *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
	client.topics[topic] = true
}

func (h *Hub) drop(client *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(client.topics, topic)
}

// remove tears down every subscription of client and closes its send channel.
func (h *Hub) remove(client *Client) {
	for topic := range client.topics {
		h.drop(client, topic)
	}
	delete(h.clients, client)
	h.setCount(len(h.clients))
	close(client.Send)
}

func (c *Client) mayFollow(topic string) bool {
	switch {
	case strings.HasPrefix(topic, "post:"):
		return len(topic) > len("post:")
	case strings.HasPrefix(topic, "user:"):
		return topic == UserTopic(c.UserID)
	}
	return false
}
