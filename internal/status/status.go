// Package status holds the user-visible sync message.
package status

import (
	"sync"
	"time"
)

// Syncing is shown while a sync is in flight. It is never cleared by the
// timer, only replaced by the next message.
const Syncing = "syncing"

// DefaultDuration is how long a message stays up
const DefaultDuration = 8 * time.Second

// Kind distinguishes good news from bad
type Kind int

const (
	None Kind = iota
	Positive
	Negative
)

// Message is one status line
type Message struct {
	Text string
	Kind Kind
	At   time.Time
}

// Empty reports whether nothing is shown
func (m Message) Empty() bool {
	return m.Text == ""
}

// Sink receives status messages
type Sink interface {
	Positive(msg string)
	Negative(msg string)
}

// Discard is a Sink that drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) Positive(string) {}
func (discard) Negative(string) {}

// Tee fans messages out to several sinks
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Positive(msg string) {
	for _, s := range t {
		s.Positive(msg)
	}
}

func (t tee) Negative(msg string) {
	for _, s := range t {
		s.Negative(msg)
	}
}

// Board keeps the current message and clears it after a fixed duration.
type Board struct {
	mu       sync.Mutex
	duration time.Duration
	current  Message
	gen      uint64
	timer    *time.Timer
	subs     map[chan Message]struct{}
}

// NewBoard creates a board whose messages clear after d. A zero d keeps
// messages until replaced.
func NewBoard(d time.Duration) *Board {
	return &Board{duration: d, subs: make(map[chan Message]struct{})}
}

func (b *Board) Positive(msg string) { b.set(Message{Text: msg, Kind: Positive, At: time.Now()}) }
func (b *Board) Negative(msg string) { b.set(Message{Text: msg, Kind: Negative, At: time.Now()}) }

// Current returns the message on display
func (b *Board) Current() Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Board) set(m Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = m
	b.gen++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if m.Text != Syncing && b.duration > 0 {
		gen := b.gen
		b.timer = time.AfterFunc(b.duration, func() { b.clear(gen) })
	}
	b.publish()
}

// clear drops the message set at generation gen, unless it was replaced
// since or is the syncing indicator.
func (b *Board) clear(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gen != gen || b.current.Text == Syncing {
		return
	}
	b.current = Message{}
	b.timer = nil
	b.publish()
}

// publish must be called with mu held. Slow subscribers only ever see the
// latest message.
func (b *Board) publish() {
	for ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- b.current:
		default:
		}
	}
}

// Subscribe returns a channel of message changes and a cancel func.
func (b *Board) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
}

// Stop cancels a pending clear
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
