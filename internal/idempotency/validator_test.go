package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
)

var t0 = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

const (
	submission          = `{"instructedAmount":{"currency":"EUR","amount":"123.50"},"creditorName":"Merchant123"}`
	reorderedSubmission = `{ "creditorName": "Merchant123", "instructedAmount": { "amount": "123.50", "currency": "EUR" } }`
	submissionResponse  = `{"transactionStatus":"RCVD","paymentId":"p-1"}`
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (*Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Entry), args.Error(1)
}

func (m *mockCache) Put(ctx context.Context, key string, entry Entry) error {
	return m.Called(ctx, key, entry).Error(0)
}

func newValidator(cache Cache, hours int, now *time.Time) *Validator {
	return NewValidator(cache, config.IdempotencyConfig{Enabled: true, AllowedTimeDurationHours: hours},
		func() time.Time { return *now })
}

func TestReplayWithinAndOutsideWindow(t *testing.T) {
	ctx := context.Background()
	now := t0
	v := newValidator(NewMemoryCache(), 1, &now)
	req := ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1", Payload: submission}

	decision, err := v.IsIdempotentReplay(ctx, req)
	require.NoError(t, err)
	assert.False(t, decision.Replay)

	require.NoError(t, v.RecordCompletedSubmission(ctx, "tpp-1", "key-1", submission, submissionResponse,
		t0.Format(time.RFC1123)))

	now = t0.Add(30 * time.Minute)
	req.Payload = reorderedSubmission
	decision, err = v.IsIdempotentReplay(ctx, req)
	require.NoError(t, err)
	assert.True(t, decision.Replay)
	assert.Equal(t, submissionResponse, decision.CachedResponse)

	now = t0.Add(2 * time.Hour)
	decision, err = v.IsIdempotentReplay(ctx, req)
	require.NoError(t, err)
	assert.False(t, decision.Replay)
	assert.True(t, decision.Stale)
}

func TestReplayWindowFollowsServerClock(t *testing.T) {
	ctx := context.Background()
	now := t0.Add(45 * time.Minute)
	cache := NewMemoryCache()
	v := newValidator(cache, 1, &now)
	require.NoError(t, cache.Put(ctx, "tpp-1_key-1", Entry{
		RequestPayload:  submission,
		ResponsePayload: submissionResponse,
		CreatedTime:     "2026-03-10T10:30:00+01:00",
	}))
	req := ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1", Payload: submission}

	decision, err := v.IsIdempotentReplay(ctx, req)
	require.NoError(t, err)
	assert.True(t, decision.Replay)

	now = t0.Add(72 * time.Hour)
	decision, err = v.IsIdempotentReplay(ctx, req)
	require.NoError(t, err)
	assert.False(t, decision.Replay)
	assert.True(t, decision.Stale)
}

func TestReplayCorruptCreatedTime(t *testing.T) {
	ctx := context.Background()
	now := t0
	cache := NewMemoryCache()
	v := newValidator(cache, 1, &now)
	require.NoError(t, cache.Put(ctx, "tpp-1_key-1", Entry{RequestPayload: submission, CreatedTime: "garbage"}))

	_, err := v.IsIdempotentReplay(ctx, ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1", Payload: submission})
	assert.Error(t, err)
}

func TestReplayRejections(t *testing.T) {
	ctx := context.Background()
	now := t0
	cache := NewMemoryCache()
	v := newValidator(cache, 24, &now)
	require.NoError(t, v.RecordCompletedSubmission(ctx, "tpp-1", "key-1", submission, submissionResponse,
		t0.Format(time.RFC1123)))

	_, err := v.IsIdempotentReplay(ctx, ReplayRequest{ClientID: "tpp-1", Payload: submission})
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = v.IsIdempotentReplay(ctx, ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1",
		Payload: `{"instructedAmount":{"currency":"EUR","amount":"999.00"},"creditorName":"Merchant123"}`})
	assert.ErrorIs(t, err, ErrKeyReused)

	_, err = v.IsIdempotentReplay(ctx, ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1", Payload: `{`})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	decision, err := v.IsIdempotentReplay(ctx, ReplayRequest{ClientID: "tpp-2", IdempotencyKey: "key-1", Payload: `{}`})
	require.NoError(t, err)
	assert.False(t, decision.Replay)
}

func TestMissingIdentifiersNeverTouchCache(t *testing.T) {
	tests := []struct {
		name    string
		req     ReplayRequest
		wantErr error
	}{
		{name: "no key", req: ReplayRequest{ClientID: "tpp-1", Payload: submission}, wantErr: ErrMissingKey},
		{name: "no client", req: ReplayRequest{IdempotencyKey: "key-1", Payload: submission}, wantErr: ErrMissingClientID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0
			cache := &mockCache{}
			v := newValidator(cache, 1, &now)

			_, err := v.IsIdempotentReplay(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		})
	}
}

func TestReplayCacheFailure(t *testing.T) {
	now := t0
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "tpp-1_key-1").Return(nil, assert.AnError)
	v := newValidator(cache, 1, &now)

	_, err := v.IsIdempotentReplay(context.Background(), ReplayRequest{ClientID: "tpp-1", IdempotencyKey: "key-1", Payload: submission})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRecordCompletedSubmission(t *testing.T) {
	ctx := context.Background()
	now := t0
	cache := &mockCache{}
	v := newValidator(cache, 1, &now)
	cache.On("Put", mock.Anything, "tpp-1_key-1", Entry{
		RequestPayload:  submission,
		ResponsePayload: submissionResponse,
		CreatedTime:     "2026-03-10T10:30:00+01:00",
	}).Return(nil)

	err := v.RecordCompletedSubmission(ctx, "tpp-1", "key-1", submission, submissionResponse,
		"Tue, 10 Mar 2026 10:30:00 +0100")
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestRecordCompletedSubmissionRequiresCreatedTime(t *testing.T) {
	ctx := context.Background()
	now := t0
	cache := &mockCache{}
	v := newValidator(cache, 1, &now)

	assert.ErrorIs(t, v.RecordCompletedSubmission(ctx, "tpp-1", "key-1", submission, submissionResponse, ""),
		ErrMissingCreatedTime)
	assert.Error(t, v.RecordCompletedSubmission(ctx, "tpp-1", "key-1", submission, submissionResponse, "10/03/2026"))
	assert.ErrorIs(t, v.RecordCompletedSubmission(ctx, "tpp-1", "", submission, submissionResponse,
		t0.Format(time.RFC1123)), ErrMissingKey)
	assert.ErrorIs(t, v.RecordCompletedSubmission(ctx, "", "key-1", submission, submissionResponse,
		t0.Format(time.RFC1123)), ErrMissingClientID)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}
