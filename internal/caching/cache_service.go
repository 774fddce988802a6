package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Balance caching
	GetBalance(ctx context.Context, tenantID uuid.UUID) (int64, bool, error)
	SetBalance(ctx context.Context, tenantID uuid.UUID, balanceCents int64, ttl time.Duration) error
	InvalidateBalance(ctx context.Context, tenantID uuid.UUID) error

	// Tenant summary caching
	GetTenantSummaries(ctx context.Context) ([]byte, error)
	SetTenantSummaries(ctx context.Context, data []byte, ttl time.Duration) error
	InvalidateTenantSummaries(ctx context.Context) error

	// Allocation locking
	AcquireAllocationLock(ctx context.Context, tenantID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseAllocationLock(ctx context.Context, tenantID uuid.UUID) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis://host:port forms
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func balanceKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("rentledger:balance:%s", tenantID.String())
}

// GetBalance returns (balance, true, nil) on a hit and (0, false, nil) on a miss.
func (r *redisCacheService) GetBalance(ctx context.Context, tenantID uuid.UUID) (int64, bool, error) {
	val, err := r.client.Get(ctx, balanceKey(tenantID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil // cache miss
		}
		return 0, false, err
	}
	return val, true, nil
}

func (r *redisCacheService) SetBalance(ctx context.Context, tenantID uuid.UUID, balanceCents int64, ttl time.Duration) error {
	return r.client.Set(ctx, balanceKey(tenantID), balanceCents, ttl).Err()
}

func (r *redisCacheService) InvalidateBalance(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.Del(ctx, balanceKey(tenantID)).Err()
}

func (r *redisCacheService) GetTenantSummaries(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, "rentledger:summaries").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}
	return data, nil
}

func (r *redisCacheService) SetTenantSummaries(ctx context.Context, data []byte, ttl time.Duration) error {
	if !json.Valid(data) {
		return fmt.Errorf("tenant summaries payload is not valid JSON")
	}
	return r.client.Set(ctx, "rentledger:summaries", data, ttl).Err()
}

func (r *redisCacheService) InvalidateTenantSummaries(ctx context.Context) error {
	return r.client.Del(ctx, "rentledger:summaries").Err()
}

// AcquireAllocationLock takes a per-tenant lock so two payments for the same
// tenant cannot allocate concurrently. Returns false when the lock is held.
func (r *redisCacheService) AcquireAllocationLock(ctx context.Context, tenantID uuid.UUID, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("rentledger:alloc-lock:%s", tenantID.String())
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

func (r *redisCacheService) ReleaseAllocationLock(ctx context.Context, tenantID uuid.UUID) error {
	key := fmt.Sprintf("rentledger:alloc-lock:%s", tenantID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("rentledger:*:%s*", tenantID.String())
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

// IsRateLimited counts hits for the key within a rolling window.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("rentledger:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
