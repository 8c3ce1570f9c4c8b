// Package notify defines the change-notification contract between the scoring
// engine and its fan-out collaborator. The engine only calls Notify; how the
// signal reaches subscribers (websocket, SSE, message bus) lives outside this
// module. Delivery is fire-and-forget: the engine never depends on it
// succeeding.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/salto/internal/domain/points"
	"github.com/okian/salto/pkg/logger"
	"github.com/okian/salto/pkg/metrics"
)

// Kind names what changed.
type Kind string

// Change kinds.
const (
	KindScoreChanged Kind = "score_changed"
	KindPublished    Kind = "published"
	KindUnpublished  Kind = "unpublished"
)

// Change is the signal emitted after a successful calculation or a
// publication transition. ChangeID lets subscribers deduplicate redeliveries.
type Change struct {
	ChangeID      string    `json:"change_id"`
	Kind          Kind      `json:"kind"`
	PerformanceID int64     `json:"performance_id"`
	ApparatusID   int64     `json:"apparatus_id"`
	EventID       int64     `json:"event_id"`
	FinalScore    *points.P `json:"final_score,omitempty"`
}

// NewChange builds a Change with a fresh id.
func NewChange(kind Kind, performanceID, apparatusID, eventID int64, final *points.P) Change {
	return Change{
		ChangeID:      uuid.NewString(),
		Kind:          kind,
		PerformanceID: performanceID,
		ApparatusID:   apparatusID,
		EventID:       eventID,
		FinalScore:    final,
	}
}

// Notifier receives change signals from the engine.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// Broadcaster is an in-process Notifier fanning changes out to subscriber
// channels. Slow subscribers are skipped, never waited on.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int64]chan Change
	next int64
	size int
}

var _ Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &Broadcaster{
		subs: make(map[int64]chan Change),
		size: bufferSize,
	}
}

// Subscribe registers a subscriber channel. The returned cancel func removes
// the subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	ch := make(chan Change, b.size)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Notify fans the change out to every subscriber without blocking.
func (b *Broadcaster) Notify(ctx context.Context, c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			// Subscriber buffer full; it will catch up on the next read.
		}
	}
	metrics.RecordNotificationSent()
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// LogNotifier is the fallback Notifier that records changes in the log.
type LogNotifier struct {
	log logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a logging notifier.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, c Change) {
	n.log.Debug(ctx, "change notification",
		logger.String("changeID", c.ChangeID),
		logger.String("kind", string(c.Kind)),
		logger.Int64("performanceID", c.PerformanceID),
		logger.Int64("apparatusID", c.ApparatusID),
		logger.Int64("eventID", c.EventID),
	)
	metrics.RecordNotificationSent()
}
