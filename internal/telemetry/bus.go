package telemetry

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// Key identifies one telemetry stream within a capture campaign.
type Key struct {
	CampaignID string
	SessionID  string
}

// Bus is an in-process pub/sub channel for AnchorTelemetry. Publishers are
// reference devices; subscribers are corner samplers in the same campaign.
// Reads are newest-wins: Latest always returns the most recent record for a
// key, and slow subscribers drop intermediate records rather than blocking
// the publisher.
type Bus struct {
	mu     sync.Mutex
	latest map[Key]AnchorTelemetry
	subs   map[Key]map[string]chan AnchorTelemetry
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		latest: make(map[Key]AnchorTelemetry),
		subs:   make(map[Key]map[string]chan AnchorTelemetry),
	}
}

// Publish records t as the newest entry for key and offers it to every
// subscriber without blocking.
func (b *Bus) Publish(key Key, t AnchorTelemetry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest[key] = t
	for _, ch := range b.subs[key] {
		select {
		case ch <- t:
		default:
		}
	}
}

// Latest returns the most recently published record for key.
func (b *Bus) Latest(key Key) (AnchorTelemetry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.latest[key]
	return t, ok
}

// Subscribe registers interest in a key. The returned channel holds one
// pending record; a publish that finds it full is dropped, so readers see
// the latest record they kept up with, never a backlog.
func (b *Bus) Subscribe(key Key) (id string, ch chan AnchorTelemetry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id = randomID()
	ch = make(chan AnchorTelemetry, 1)
	if b.subs[key] == nil {
		b.subs[key] = make(map[string]chan AnchorTelemetry)
	}
	b.subs[key][id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Bus) Unsubscribe(key Key, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[key][id]
	if !ok {
		return
	}
	delete(b.subs[key], id)
	close(ch)
}

func randomID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return fmt.Sprintf("%x", buf)
}
