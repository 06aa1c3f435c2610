package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/montuvia/inventory_backend/config"
	"github.com/shopspring/decimal"
)

func ParseDecimal(value string) (decimal.Decimal, error) {
	// Remove any whitespace and check for empty strings
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	// Convert string to decimal
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// GenerateSaleId returns a fresh ledger document id ("sale_" + 20 chars).
// The prefix matches the ids the data-migration tooling seeded.
func GenerateSaleId() string {
	return "sale_" + compactUUID(20)
}

// GenerateUploadId returns an id for one sales upload run.
func GenerateUploadId() string {
	return fmt.Sprintf("upload_%d_%s", time.Now().UTC().Unix(), compactUUID(8))
}

func compactUUID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(s) {
		return s[:n]
	}
	return s
}

// uploadLockTTL bounds how long a crashed run can keep an upload locked.
const uploadLockTTL = 10 * time.Minute

// ObtainUploadLock takes a distributed lock so two pipeline instances never
// process the same upload id at once. When Redis is not configured the lock
// degrades to a no-op; independent uploads are safe to run concurrently and
// ingredient updates are atomic, so the lock only guards against the same
// upload being replayed in parallel.
func ObtainUploadLock(ctx context.Context, uploadId string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	lockKey := "sales_upload_lock:" + uploadId
	lock, err := locker.Obtain(ctx, lockKey, uploadLockTTL, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for upload", uploadId, err)
		return nil, ErrorUploadLocked
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for upload", uploadId, err)
		return nil, err
	}

	release := func() {
		_ = lock.Release(ctx)
	}
	return release, nil
}
