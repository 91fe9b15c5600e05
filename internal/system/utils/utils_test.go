package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/openbanking-berlin-consent/internal/system/error/apierror"
	"github.com/wso2/openbanking-berlin-consent/internal/system/error/serviceerror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSendError(t *testing.T) {
	tests := []struct {
		base serviceerror.ServiceError
		want int
	}{
		{serviceerror.ResourceNotFoundError, http.StatusNotFound},
		{serviceerror.ConflictError, http.StatusConflict},
		{serviceerror.ConsentExpiredError, http.StatusUnauthorized},
		{serviceerror.UnauthorizedClientError, http.StatusForbidden},
		{serviceerror.FormatError, http.StatusBadRequest},
		{serviceerror.IdempotencyKeyReusedError, http.StatusBadRequest},
		{serviceerror.InconsistentStateError, http.StatusInternalServerError},
		{serviceerror.DatabaseError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.base.Code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			SendError(c, serviceerror.CustomServiceError(tt.base, "details"))

			assert.Equal(t, tt.want, w.Code)
			assert.True(t, c.IsAborted())
			var body apierror.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.base.Error, body.Code)
			assert.Equal(t, "details", body.Description)
		})
	}
}

func TestParseTriStateHeader(t *testing.T) {
	tests := []struct {
		value   string
		want    *bool
		wantErr bool
	}{
		{value: "", want: nil},
		{value: "true", want: boolPtr(true)},
		{value: "false", want: boolPtr(false)},
		{value: "yes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.value != "" {
				c.Request.Header.Set("TPP-Redirect-Preferred", tt.value)
			}

			got, err := ParseTriStateHeader(c, "TPP-Redirect-Preferred")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndOfDayMillis(t *testing.T) {
	millis, err := EndOfDayMillis("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), time.UnixMilli(millis).UTC())

	_, err = EndOfDayMillis("01/03/2026")
	assert.Error(t, err)
}

func TestValidateResourceID(t *testing.T) {
	assert.NoError(t, ValidateResourceID("consentID", GenerateUUID()))
	assert.EqualError(t, ValidateResourceID("consentID", ""), "consentID is required")
	assert.Error(t, ValidateResourceID("consentID", "not-a-uuid"))
}

func boolPtr(v bool) *bool { return &v }
