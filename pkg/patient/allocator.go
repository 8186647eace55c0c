package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeedFunc returns the highest sequence already stored for a bucket.
type SeedFunc func(ctx context.Context) (int64, error)

// SequenceCounter hands out per-bucket sequence numbers. Next must never
// return the same value twice for a bucket unless Reset was called.
type SequenceCounter interface {
	Next(ctx context.Context, bucket string, seed SeedFunc) (int64, error)
	Reset(ctx context.Context, bucket string) error
}

// FormatID renders P<YYYYMMDD>-<seq>. Sequences below 1000 are zero-padded
// to three digits; larger ones are printed in full.
func FormatID(dob time.Time, seq int64) string {
	return fmt.Sprintf("P%s-%03d", dobDigits(dob), seq)
}

// ParseSequence extracts the numeric suffix of an identifier produced by
// FormatID.
func ParseSequence(id string) (int64, bool) {
	i := strings.LastIndexByte(id, '-')
	if !strings.HasPrefix(id, "P") || i < 0 {
		return 0, false
	}
	seq, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

// Allocator issues patient identifiers from a date of birth.
type Allocator struct {
	counter SequenceCounter
	store   Store
}

func NewAllocator(counter SequenceCounter, store Store) *Allocator {
	return &Allocator{counter: counter, store: store}
}

func (a *Allocator) Allocate(ctx context.Context, dob time.Time) (string, error) {
	bucket := dobDigits(dob)
	key := dob.Format(dobLayout)
	seq, err := a.counter.Next(ctx, bucket, func(ctx context.Context) (int64, error) {
		return a.store.MaxSequenceByDOB(ctx, key)
	})
	if err != nil {
		return "", fmt.Errorf("allocating identifier for %s: %w", key, err)
	}
	return FormatID(dob, seq), nil
}

// Release drops cached state for the bucket so that the next allocation
// reseeds from the store. Call it whenever an allocated identifier is not
// persisted.
func (a *Allocator) Release(ctx context.Context, dob time.Time) error {
	return a.counter.Reset(ctx, dobDigits(dob))
}

// LocalCounter serializes allocation per bucket inside one process.
type LocalCounter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
}

type localBucket struct {
	mu     sync.Mutex
	seeded bool
	last   int64
}

func NewLocalCounter() *LocalCounter {
	return &LocalCounter{buckets: make(map[string]*localBucket)}
}

func (c *LocalCounter) bucket(name string) *localBucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[name]
	if !ok {
		b = &localBucket{}
		c.buckets[name] = b
	}
	return b
}

func (c *LocalCounter) Next(ctx context.Context, bucket string, seed SeedFunc) (int64, error) {
	b := c.bucket(bucket)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.seeded {
		n, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		b.last = n
		b.seeded = true
	}
	b.last++
	return b.last, nil
}

func (c *LocalCounter) Reset(ctx context.Context, bucket string) error {
	b := c.bucket(bucket)
	b.mu.Lock()
	b.seeded = false
	b.last = 0
	b.mu.Unlock()
	return nil
}

const redisSequencePrefix = "triage:patient-seq:"

// RedisCounter shares sequences between replicas with INCR.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Next(ctx context.Context, bucket string, seed SeedFunc) (int64, error) {
	key := redisSequencePrefix + bucket
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("checking sequence %s: %w", key, err)
	}
	if exists == 0 {
		n, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		// A concurrent seeder may win; its value is equally valid.
		if err := c.client.SetNX(ctx, key, n, 0).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("seeding sequence %s: %w", key, err)
		}
	}
	seq, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing sequence %s: %w", key, err)
	}
	return seq, nil
}

func (c *RedisCounter) Reset(ctx context.Context, bucket string) error {
	return c.client.Del(ctx, redisSequencePrefix+bucket).Err()
}
