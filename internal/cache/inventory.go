package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DatabaseSizeKeyPrefix = "dbsize:%s"
	PendingKeyPrefix      = "pending:%s"
)

const (
	DatabaseSizeTTL = 5 * time.Minute
	PendingTTL      = 30 * time.Second
)

func DatabaseSizeKey(dbName string) string {
	return fmt.Sprintf(DatabaseSizeKeyPrefix, dbName)
}

func PendingKey(scope string) string {
	return fmt.Sprintf(PendingKeyPrefix, scope)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePending drops the cached pending queue for every given scope.
// Callers pass both the request's own scope and the superuser scope, since a
// queue change is visible through both.
func InvalidatePending(ctx context.Context, scopes ...string) {
	for _, scope := range scopes {
		Invalidate(ctx, PendingKey(scope))
	}
}

func InvalidateDatabaseSize(ctx context.Context, dbName string) {
	Invalidate(ctx, DatabaseSizeKey(dbName))
}
