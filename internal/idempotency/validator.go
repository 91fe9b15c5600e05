package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

var (
	// ErrMissingKey is returned when a payment submission carries no idempotency key.
	ErrMissingKey = errors.New("idempotency key header is missing")
	// ErrMissingClientID is returned when the submitting client cannot be identified.
	ErrMissingClientID = errors.New("client id is missing")
	// ErrKeyReused is returned when a key is presented again with a different payload.
	ErrKeyReused = errors.New("idempotency key reused with different payload")
	// ErrMissingCreatedTime is returned when a completed submission has no Date header.
	ErrMissingCreatedTime = errors.New("response created time is missing")
)

// ReplayRequest describes an incoming payment submission.
type ReplayRequest struct {
	ClientID       string
	IdempotencyKey string
	Payload        string
}

// Decision is the outcome of a cache lookup.
type Decision struct {
	Replay         bool
	CachedResponse string
	// Stale marks an equal payload seen outside the replay window.
	Stale bool
}

// Validator applies the replay rules on top of a Cache.
type Validator struct {
	cache        Cache
	allowedHours int
	clock        utils.Clock
	logger       *log.Logger
}

// NewValidator creates a validator with the configured replay window.
func NewValidator(cache Cache, cfg config.IdempotencyConfig, clock utils.Clock) *Validator {
	return &Validator{
		cache:        cache,
		allowedHours: cfg.GetIdempotencyAllowedDurationHours(),
		clock:        clock,
		logger:       log.GetLogger().With(log.String(log.LoggerKeyComponentName, "IdempotencyValidator")),
	}
}

// IsIdempotentReplay decides whether req repeats a completed submission that should be
// answered from the cache.
func (v *Validator) IsIdempotentReplay(ctx context.Context, req ReplayRequest) (*Decision, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingKey
	}
	if req.ClientID == "" {
		return nil, ErrMissingClientID
	}
	logger := v.logger.WithContext(ctx)

	entry, err := v.cache.Get(ctx, CacheKey(req.ClientID, req.IdempotencyKey))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		logger.Debug("Idempotency key not seen before")
		return &Decision{}, nil
	}

	equal, err := PayloadsEqual(entry.RequestPayload, req.Payload)
	if err != nil {
		return nil, err
	}
	if !equal {
		logger.Warn("Idempotency key reused with a different payload", log.String("client_id", req.ClientID))
		return nil, ErrKeyReused
	}

	within, err := withinWindow(entry.CreatedTime, v.clock(), v.allowedHours)
	if err != nil {
		return nil, fmt.Errorf("cached entry: %w", err)
	}
	if !within {
		logger.Debug("Idempotent request outside allowed time, treating as new")
		return &Decision{Stale: true}, nil
	}

	logger.Debug("Replaying cached response for idempotent request")
	return &Decision{Replay: true, CachedResponse: entry.ResponsePayload}, nil
}

// RecordCompletedSubmission caches a successful submission under its response's created time.
func (v *Validator) RecordCompletedSubmission(
	ctx context.Context,
	clientID, idempotencyKey, requestPayload, responsePayload, createdTimeHeader string,
) error {
	if idempotencyKey == "" {
		return ErrMissingKey
	}
	if clientID == "" {
		return ErrMissingClientID
	}
	if createdTimeHeader == "" {
		return ErrMissingCreatedTime
	}
	created, err := ParseHeaderTime(createdTimeHeader)
	if err != nil {
		return err
	}

	return v.cache.Put(ctx, CacheKey(clientID, idempotencyKey), Entry{
		RequestPayload:  requestPayload,
		ResponsePayload: responsePayload,
		CreatedTime:     created.Format(time.RFC3339),
	})
}
