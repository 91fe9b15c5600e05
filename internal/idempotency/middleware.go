package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wso2/openbanking-berlin-consent/internal/system/config"
	"github.com/wso2/openbanking-berlin-consent/internal/system/constants"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/log"
	"github.com/wso2/openbanking-berlin-consent/internal/system/metrics"
	"github.com/wso2/openbanking-berlin-consent/internal/system/utils"
)

// StagedPayloadKey holds the submission payload on the gin context while the request is in flight.
const StagedPayloadKey = "idempotency.requestPayload"

// capturingWriter copies the response body so it can be cached after the handler returns.
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays completed payment initiations that repeat an idempotency key.
func Middleware(validator *Validator, cfg config.IdempotencyConfig, m *metrics.Metrics) gin.HandlerFunc {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "IdempotencyMiddleware"))

	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.Method != http.MethodPost || !isPaymentInitiation(c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		clientID := c.GetHeader(constants.TPPClientIDHeaderName)
		key := c.GetHeader(cfg.HeaderName)

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.SendError(c, serviceerror.CustomServiceError(serviceerror.FormatError, "unable to read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		payload := string(body)

		decision, err := validator.IsIdempotentReplay(ctx, ReplayRequest{
			ClientID:       clientID,
			IdempotencyKey: key,
			Payload:        payload,
		})
		if err != nil {
			m.IncrementIdempotency(outcomeFor(err))
			utils.SendError(c, serviceErrorFor(err, cfg.HeaderName))
			return
		}

		if decision.Replay {
			m.IncrementIdempotency(metrics.IdempotencyReplayed)
			c.Header(constants.IdempotentReplayHeaderName, "true")
			c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(decision.CachedResponse))
			c.Abort()
			return
		}
		if decision.Stale {
			m.IncrementIdempotency(metrics.IdempotencyStale)
		} else {
			m.IncrementIdempotency(metrics.IdempotencyProceed)
		}

		c.Set(StagedPayloadKey, payload)
		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		if writer.Status() >= http.StatusBadRequest {
			return
		}
		err = validator.RecordCompletedSubmission(ctx, clientID, key, payload, writer.body.String(),
			writer.Header().Get(constants.DateHeaderName))
		if err != nil {
			m.IncrementIdempotency(metrics.IdempotencyError)
			logger.WithContext(ctx).Warn("Unable to cache payment submission", log.Error(err))
			return
		}
		m.IncrementIdempotency(metrics.IdempotencyRecorded)
	}
}

// isPaymentInitiation matches /v1/{payment-service}/{payment-product}.
func isPaymentInitiation(path string) bool {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != 3 || segments[0] != "v1" {
		return false
	}
	for _, service := range constants.PaymentServices {
		if segments[1] == service {
			return true
		}
	}
	return false
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrMissingKey), errors.Is(err, ErrMissingClientID), errors.Is(err, ErrKeyReused),
		errors.Is(err, ErrInvalidPayload):
		return metrics.IdempotencyRejected
	default:
		return metrics.IdempotencyError
	}
}

func serviceErrorFor(err error, headerName string) *serviceerror.ServiceError {
	switch {
	case errors.Is(err, ErrMissingKey):
		return serviceerror.CustomServiceError(serviceerror.FormatError, headerName+" header is missing")
	case errors.Is(err, ErrMissingClientID):
		return serviceerror.CustomServiceError(serviceerror.FormatError, constants.TPPClientIDHeaderName+" header is missing")
	case errors.Is(err, ErrKeyReused):
		return serviceerror.CustomServiceError(serviceerror.IdempotencyKeyReusedError, err.Error())
	case errors.Is(err, ErrInvalidPayload):
		return serviceerror.CustomServiceError(serviceerror.FormatError, err.Error())
	default:
		return serviceerror.CustomServiceError(serviceerror.InternalServerError, "idempotency check failed")
	}
}
