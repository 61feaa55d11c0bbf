package tracing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gologme/log"
	"github.com/redis/go-redis/v9"
	"github.com/sarchlab/floodsim/flooding"
	"github.com/sarchlab/floodsim/sim/hooking"
)

// A Publisher sends a payload to the subscribers of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects lazily to the Redis server at addr.
func NewRedisPublisher(addr, password string) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Ping checks that the server answers.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish sends the payload to the channel.
func (p *RedisPublisher) Publish(
	ctx context.Context,
	channel string,
	payload []byte,
) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Close closes the connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// FeedEvent is the message published for every broadcast start, delivery,
// flood end and reset.
type FeedEvent struct {
	Kind     string `json:"kind"`
	Sequence uint64 `json:"sequence"`
	Source   int    `json:"source"`
	Message  string `json:"message,omitempty"`
	Sender   int    `json:"sender"`
	Receiver int    `json:"receiver"`
	TTL      int    `json:"ttl"`
}

// Kinds of feed events.
const (
	FeedBroadcast = "broadcast"
	FeedDelivery  = "delivery"
	FeedDrained   = "drained"
	FeedReset     = "reset"
)

// DefaultFeedChannel is the Redis channel events go to when none is given.
const DefaultFeedChannel = "floodsim.transfers"

// feedQueueSize is the number of events that may wait for the publisher.
const feedQueueSize = 1024

// A FeedHook publishes the flood as it happens so that other processes can
// draw it. Events are queued and published from a background goroutine.
// Events that do not fit in the queue and publish failures are logged and
// otherwise ignored.
type FeedHook struct {
	publisher Publisher
	channel   string
	timeout   time.Duration
	logger    *log.Logger

	lock   sync.Mutex
	closed bool
	events chan FeedEvent
	done   chan struct{}
}

// NewFeedHook creates a hook that publishes to the channel. Close must be
// called to flush the queued events.
func NewFeedHook(
	publisher Publisher,
	channel string,
	logger *log.Logger,
) *FeedHook {
	h := &FeedHook{
		publisher: publisher,
		channel:   channel,
		timeout:   time.Second,
		logger:    logger,
		events:    make(chan FeedEvent, feedQueueSize),
		done:      make(chan struct{}),
	}

	go h.drain()

	return h
}

// Close stops accepting events and waits until the queued ones are
// published.
func (h *FeedHook) Close() {
	h.lock.Lock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
	h.lock.Unlock()

	<-h.done
}

// Func publishes the event at the hook position.
func (h *FeedHook) Func(ctx hooking.HookCtx) {
	var event FeedEvent

	switch ctx.Pos {
	case flooding.HookPosBroadcastStart:
		b := ctx.Item.(flooding.Broadcast)
		event = FeedEvent{
			Kind:     FeedBroadcast,
			Sequence: b.Sequence,
			Source:   b.Source,
			Message:  b.Message,
			TTL:      b.TTL,
		}
	case flooding.HookPosAfterStep:
		result := ctx.Detail.(flooding.StepResult)
		if !result.Outcome.Delivered() {
			return
		}

		event = FeedEvent{
			Kind:     FeedDelivery,
			Sequence: result.Packet.Sequence,
			Sender:   result.Packet.Sender,
			Receiver: result.Packet.Destination,
			TTL:      result.Packet.TTL,
		}
	case flooding.HookPosFloodEnd:
		b := ctx.Item.(flooding.Broadcast)
		event = FeedEvent{Kind: FeedDrained, Sequence: b.Sequence}
	case flooding.HookPosReset:
		event = FeedEvent{Kind: FeedReset}
		if b, ok := ctx.Item.(flooding.Broadcast); ok {
			event.Sequence = b.Sequence
		}
	default:
		return
	}

	h.enqueue(event)
}

func (h *FeedHook) enqueue(event FeedEvent) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.closed {
		return
	}

	select {
	case h.events <- event:
	default:
		h.logger.Warnf("feed queue full, dropping %s event", event.Kind)
	}
}

func (h *FeedHook) drain() {
	defer close(h.done)

	for event := range h.events {
		h.publish(event)
	}
}

func (h *FeedHook) publish(event FeedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	err = h.publisher.Publish(ctx, h.channel, payload)
	if err != nil {
		h.logger.Warnf("cannot publish %s event: %v", event.Kind, err)
	}
}
