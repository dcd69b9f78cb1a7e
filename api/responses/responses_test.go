package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"room": "101"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "101", body.Data.(map[string]any)["room"])
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "check-out must be after check-in").
		WithDetails(map[string]string{"field": "check_out_date"})
	WriteError(context.Background(), nil, w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
	assert.Equal(t, "check-out must be after check-in", body.Error.Message)
	assert.NotNil(t, body.Error.Details)
}

func TestWriteErrorStateConflictCarriesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.StateConflict("r-1", "CANCELLED", "check in"))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), body.Error.Code)
	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CANCELLED", details["current"])
}

func TestWriteErrorHidesDependencyMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "lookup room"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "dependency unavailable", decodeError(t, w).Error.Message)
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	assert.Nil(t, body.Error.Details)
}

func TestWriteErrorFlagsRetryAndEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-Id", "req-77")
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeVersionConflict, "room was modified concurrently"))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.True(t, body.Error.Retryable)
	assert.Equal(t, "req-77", body.Error.RequestID)

	w = httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))
	assert.False(t, decodeError(t, w).Error.Retryable, "server faults are not advertised as retryable")
}
