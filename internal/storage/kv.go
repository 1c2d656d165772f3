// Package storage provides the key-value substrate the ledger is persisted to.
package storage

import "context"

// KV is a string key-value store.
// Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// BatchWriter is implemented by stores that can write several keys atomically.
type BatchWriter interface {
	SetMany(ctx context.Context, values map[string]string) error
}

// SetAll writes values through SetMany when the store supports it and key by
// key otherwise.
func SetAll(ctx context.Context, kv KV, values map[string]string) error {
	if bw, ok := kv.(BatchWriter); ok {
		return bw.SetMany(ctx, values)
	}
	for k, v := range values {
		if err := kv.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
