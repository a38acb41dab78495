package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scorekeeper/core"
	"scorekeeper/engine"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string        `json:"addr" yaml:"addr" env:"SCOREKEEPER_STORAGE_REDIS_ADDR"`
	Password     string        `json:"password" yaml:"password" env:"SCOREKEEPER_STORAGE_REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"SCOREKEEPER_STORAGE_REDIS_DB"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size" env:"SCOREKEEPER_STORAGE_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns" env:"SCOREKEEPER_STORAGE_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" env:"SCOREKEEPER_STORAGE_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" env:"SCOREKEEPER_STORAGE_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" env:"SCOREKEEPER_STORAGE_REDIS_WRITE_TIMEOUT"`
	KeyPrefix    string        `json:"key_prefix" yaml:"key_prefix" env:"SCOREKEEPER_STORAGE_REDIS_KEY_PREFIX"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "scorekeeper",
	}
}

// Store implements engine.Repository on Redis.
// Data structure:
// - {prefix}:seq -> counter handing out record ids
// - {prefix}:ranking -> sorted set, score = record score, member = tie key
// - {prefix}:records -> hash, tie key -> JSON record
//
// Equal scores are ordered by member, so the tie key is the zero-padded
// complement of the id: lower ids sort first in ZREVRANGE and the newest
// record sorts first in ZRANGE. Scores are stored as doubles and keep exact
// order up to 2^53.
type Store struct {
	client   *redis.Client
	capacity int
	seqKey   string
	rankKey  string
	dataKey  string
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config, capacity int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, config.KeyPrefix, capacity), nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, prefix string, capacity int) *Store {
	if prefix == "" {
		prefix = "scorekeeper"
	}
	if capacity <= 0 {
		capacity = core.DefaultRetentionCap
	}
	return &Store{
		client:   client,
		capacity: capacity,
		seqKey:   prefix + ":seq",
		rankKey:  prefix + ":ranking",
		dataKey:  prefix + ":records",
	}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

const maxID = 999999999999999

func tieKey(id int64) string {
	return fmt.Sprintf("%015d", maxID-id)
}

// insertScript adds one record and trims the lowest ranked ones in one step.
// Returns {size, {payload...}} with evicted payloads lowest first.
var insertScript = redis.NewScript(`
	local rank, data = KEYS[1], KEYS[2]
	redis.call('ZADD', rank, ARGV[1], ARGV[2])
	redis.call('HSET', data, ARGV[2], ARGV[3])
	local size = redis.call('ZCARD', rank)
	local cap = tonumber(ARGV[4])
	local evicted = {}
	if size > cap then
		local drop = redis.call('ZRANGE', rank, 0, size - cap - 1)
		for i, m in ipairs(drop) do
			evicted[i] = redis.call('HGET', data, m)
		end
		redis.call('ZREMRANGEBYRANK', rank, 0, size - cap - 1)
		redis.call('HDEL', data, unpack(drop))
		size = cap
	end
	return {size, evicted}
`)

// rankedScript reads the top records and the set size from one state.
var rankedScript = redis.NewScript(`
	local members = redis.call('ZREVRANGE', KEYS[1], 0, tonumber(ARGV[1]) - 1)
	local payloads = {}
	if #members > 0 then
		payloads = redis.call('HMGET', KEYS[2], unpack(members))
	end
	return {redis.call('ZCARD', KEYS[1]), payloads}
`)

func (s *Store) Insert(ctx context.Context, rec core.ScoreRecord) (core.InsertResult, error) {
	id, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("failed to allocate id: %w", err)
	}
	if id > maxID {
		return core.InsertResult{}, errors.New("id sequence exhausted")
	}
	rec.ID = id
	payload, err := json.Marshal(rec)
	if err != nil {
		return core.InsertResult{}, err
	}

	keys := []string{s.rankKey, s.dataKey}
	raw, err := insertScript.Run(ctx, s.client, keys, rec.Score, tieKey(id), payload, s.capacity).Slice()
	if err != nil {
		return core.InsertResult{}, fmt.Errorf("failed to insert score: %w", err)
	}
	size, evictedRaw, err := splitReply(raw)
	if err != nil {
		return core.InsertResult{}, err
	}
	evicted, err := decodeRecords(evictedRaw)
	if err != nil {
		return core.InsertResult{}, err
	}
	// lowest first from ZRANGE; report in ranking order
	for i, j := 0, len(evicted)-1; i < j; i, j = i+1, j-1 {
		evicted[i], evicted[j] = evicted[j], evicted[i]
	}
	return core.InsertResult{ID: id, Evicted: evicted, Size: size}, nil
}

func (s *Store) Ranked(ctx context.Context, limit int) (core.Standings, error) {
	if limit <= 0 {
		n, err := s.Count(ctx)
		return core.Standings{Records: []core.ScoreRecord{}, Total: n}, err
	}
	raw, err := rankedScript.Run(ctx, s.client, []string{s.rankKey, s.dataKey}, limit).Slice()
	if err != nil {
		return core.Standings{}, fmt.Errorf("failed to read ranking: %w", err)
	}
	total, payloads, err := splitReply(raw)
	if err != nil {
		return core.Standings{}, err
	}
	records, err := decodeRecords(payloads)
	if err != nil {
		return core.Standings{}, err
	}
	return core.Standings{Records: records, Total: total}, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.rankKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return int(n), nil
}

func splitReply(raw []interface{}) (int, []interface{}, error) {
	if len(raw) != 2 {
		return 0, nil, fmt.Errorf("unexpected script reply length %d", len(raw))
	}
	size, ok := raw[0].(int64)
	if !ok {
		return 0, nil, errors.New("unexpected result type from Redis script")
	}
	items, _ := raw[1].([]interface{})
	return int(size), items, nil
}

func decodeRecords(items []interface{}) ([]core.ScoreRecord, error) {
	out := make([]core.ScoreRecord, 0, len(items))
	for _, item := range items {
		var b []byte
		switch v := item.(type) {
		case string:
			b = []byte(v)
		case []byte:
			b = v
		case nil:
			// member without payload; skip
			continue
		default:
			return nil, fmt.Errorf("unexpected payload type %T", item)
		}
		var rec core.ScoreRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ engine.Repository = (*Store)(nil)
