// Package cache 保存内容API成功响应的快照，失败结果从不写入。
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"cih-portal/pkg/redis"
)

// Store 快照存储
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RedisStore 基于 Redis 的快照存储
type RedisStore struct {
	client *redis.RedisClient
	prefix string
}

// NewRedisStore 创建 Redis 快照存储
func NewRedisStore(client *redis.RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.client.GetBytes(ctx, s.prefix+key)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// DefaultMemorySize 进程内快照的最大条目数
const DefaultMemorySize = 256

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore 进程内快照存储，LRU 淘汰；ttl 是条目寿命上限，Set 可以给出更短的 ttl
type MemoryStore struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewMemoryStore 创建进程内快照存储；size <= 0 时使用 DefaultMemorySize，ttl <= 0 时不设上限
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, entry](size, nil, ttl),
		now: time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.lru.Add(key, e)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.lru.Remove(key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.lru.Purge()
	return nil
}
