package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TicketSequence hands out monotonically increasing ticket numbers.
type TicketSequence interface {
	Next(ctx context.Context) (int64, error)
	// Advance makes sure later numbers are greater than floor.
	Advance(ctx context.Context, floor int64) error
}

type redisTicketSequence struct {
	client *redis.Client
	key    string
	start  int64
}

// NewRedisTicketSequence returns a sequence backed by an atomic INCR on key.
// The first number handed out is start+1.
func NewRedisTicketSequence(client *redis.Client, key string, start int64) TicketSequence {
	return &redisTicketSequence{client: client, key: key, start: start}
}

func (s *redisTicketSequence) Next(ctx context.Context) (int64, error) {
	if err := s.client.SetNX(ctx, s.key, s.start, 0).Err(); err != nil {
		return 0, fmt.Errorf("seed ticket sequence: %w", err)
	}
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment ticket sequence: %w", err)
	}
	return n, nil
}

// advanceScript raises the counter to ARGV[1] unless it is already higher.
var advanceScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if current < floor then
  redis.call("SET", KEYS[1], floor)
end
return 0
`)

func (s *redisTicketSequence) Advance(ctx context.Context, floor int64) error {
	if floor < s.start {
		floor = s.start
	}
	if err := advanceScript.Run(ctx, s.client, []string{s.key}, floor).Err(); err != nil {
		return fmt.Errorf("advance ticket sequence: %w", err)
	}
	return nil
}
