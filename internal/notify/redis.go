package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are published on
const DefaultChannel = "notifications"

// RedisSink publishes every event as JSON on a pub/sub channel
type RedisSink struct {
	rdb     *redis.Client
	channel string
}

func NewRedisSink(rdb *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Accepts(Event) bool { return true }

func (s *RedisSink) Deliver(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, payload).Err()
}
