package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/marketplace-accounts/internal/application/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const idempotencyPrefix = "accounts:idempotency:"

// IdempotencyStore guarda el estado de cada Idempotency-Key como JSON con TTL.
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore crea el adaptador. ttl es la vida de cada clave desde su reserva.
func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve usa SET NX: solo una petición gana la clave.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, fingerprint string) (*ports.IdempotencyRecord, error) {
	raw, err := json.Marshal(ports.IdempotencyRecord{Fingerprint: fingerprint, Status: ports.IdempotencyPending})
	if err != nil {
		return nil, err
	}
	// Dos intentos: la clave existente puede expirar entre SETNX y GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, raw, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}
		rec, err := s.get(ctx, key)
		if err != nil || rec != nil {
			return rec, err
		}
	}
	return nil, fmt.Errorf("reserve idempotency key %s: contención", key)
}

// Complete guarda el resultado manteniendo el TTL original.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, result []byte) error {
	rec, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("complete idempotency key %s: clave expirada o inexistente", key)
	}
	rec.Status = ports.IdempotencyCompleted
	rec.Result = result
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, idempotencyPrefix+key, raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	raw, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	var rec ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &rec, nil
}
