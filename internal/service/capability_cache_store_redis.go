package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCapabilityCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCapabilityCacheStore(client redis.UniversalClient, prefix string) *RedisCapabilityCacheStore {
	if prefix == "" {
		prefix = "proj_cap"
	}
	return &RedisCapabilityCacheStore{client: client, prefix: prefix}
}

func (s *RedisCapabilityCacheStore) Get(ctx context.Context, userID, projectID string) ([]string, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	key, err := s.dataKey(ctx, userID, projectID)
	if err != nil {
		return nil, false, err
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var capabilities []string
	if err := json.Unmarshal(raw, &capabilities); err != nil {
		return nil, false, err
	}
	return capabilities, true, nil
}

func (s *RedisCapabilityCacheStore) Set(ctx context.Context, userID, projectID string, capabilities []string, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	key, err := s.dataKey(ctx, userID, projectID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(capabilities)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *RedisCapabilityCacheStore) InvalidateUser(ctx context.Context, userID string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.userEpochKey(userID)).Err()
}

func (s *RedisCapabilityCacheStore) InvalidateAll(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Incr(ctx, s.globalEpochKey()).Err()
}

func (s *RedisCapabilityCacheStore) dataKey(ctx context.Context, userID, projectID string) (string, error) {
	pipe := s.client.Pipeline()
	globalEpochCmd := pipe.Get(ctx, s.globalEpochKey())
	userEpochCmd := pipe.Get(ctx, s.userEpochKey(userID))
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return "", err
	}
	globalEpoch, err := parseEpoch(globalEpochCmd)
	if err != nil {
		return "", err
	}
	userEpoch, err := parseEpoch(userEpochCmd)
	if err != nil {
		return "", err
	}
	return buildCapabilityCacheKey(globalEpoch, userEpoch, userID, projectID), nil
}

func parseEpoch(cmd *redis.StringCmd) (uint64, error) {
	v, err := cmd.Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func (s *RedisCapabilityCacheStore) globalEpochKey() string {
	return s.prefix + ":epoch:global"
}

func (s *RedisCapabilityCacheStore) userEpochKey(userID string) string {
	return fmt.Sprintf("%s:epoch:user:%s", s.prefix, userID)
}
