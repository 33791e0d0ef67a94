package events

import (
	"context"
	"encoding/json"
	"sync"
)

// clientBuffer is how many undelivered events a slow subscriber may hold
// before further events are dropped for it.
const clientBuffer = 16

// Broker fans applicant-created events out to server-sent event streams.
type Broker struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewBroker() *Broker {
	return &Broker{clients: make(map[chan string]struct{})}
}

func (b *Broker) Subscribe() chan string {
	ch := make(chan string, clientBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// CloseAll disconnects every subscriber.
func (b *Broker) CloseAll() {
	b.mu.Lock()
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Clients returns the number of connected subscribers.
func (b *Broker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish never blocks: subscribers with a full buffer miss the event.
func (b *Broker) Publish(_ context.Context, ev ApplicantCreated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := string(body)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}
