package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

type Level string

const (
	Success Level = "success"
	Warning Level = "warning"
	Info    Level = "info"
)

const (
	DefaultTTL      = 5 * time.Second
	DefaultCapacity = 5
)

// Notice is what a producer hands to the bus.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   Level  `json:"type"`
}

// Notification is a notice once the bus has assigned it an id and timestamp.
type Notification struct {
	ID string `json:"id"`
	Notice
	Timestamp time.Time `json:"timestamp"`
}

type entry struct {
	n     Notification
	timer *util.Timer
}

// Bus holds the most recent notifications, newest first. Each one is removed
// automatically once its TTL elapses.
type Bus struct {
	mu       sync.Mutex
	items    []entry
	ttl      time.Duration
	capacity int
	clock    util.Clock
	ids      util.IDGenerator
	logger   *zap.Logger

	// OnChange is called after every mutation with the current list
	OnChange func([]Notification)
}

func NewBus(clock util.Clock, ids util.IDGenerator, ttl time.Duration, capacity int, logger *zap.Logger) *Bus {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		ttl:      ttl,
		capacity: capacity,
		clock:    clock,
		ids:      ids,
		logger:   logger,
	}
}

// Push prepends a notification and schedules its expiry. Entries pushed out
// by the capacity limit have their timers stopped.
func (b *Bus) Push(n Notice) Notification {
	b.mu.Lock()
	out := Notification{
		ID:        b.ids.NextID(),
		Notice:    n,
		Timestamp: b.clock.Now(),
	}
	id := out.ID
	e := entry{n: out}
	e.timer = b.clock.AfterFunc(b.ttl, func() { b.Remove(id) })

	b.items = append([]entry{e}, b.items...)
	for len(b.items) > b.capacity {
		last := b.items[len(b.items)-1]
		last.timer.Stop()
		b.items = b.items[:len(b.items)-1]
	}
	list := b.listLocked()
	b.mu.Unlock()

	b.logger.Debug("notification_pushed",
		zap.String("id", id),
		zap.String("title", n.Title),
		zap.String("level", string(n.Level)))
	b.changed(list)
	return out
}

// Remove drops a notification by id. Removing an unknown id is a no-op.
func (b *Bus) Remove(id string) bool {
	b.mu.Lock()
	idx := -1
	for i, e := range b.items {
		if e.n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return false
	}
	b.items[idx].timer.Stop()
	b.items = append(b.items[:idx], b.items[idx+1:]...)
	list := b.listLocked()
	b.mu.Unlock()

	b.changed(list)
	return true
}

// List returns the current notifications, newest first
func (b *Bus) List() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listLocked()
}

// Clear removes everything and stops all pending timers
func (b *Bus) Clear() {
	b.mu.Lock()
	for _, e := range b.items {
		e.timer.Stop()
	}
	b.items = nil
	b.mu.Unlock()
	b.changed(nil)
}

func (b *Bus) listLocked() []Notification {
	out := make([]Notification, len(b.items))
	for i, e := range b.items {
		out[i] = e.n
	}
	return out
}

func (b *Bus) changed(list []Notification) {
	if b.OnChange != nil {
		b.OnChange(list)
	}
}
