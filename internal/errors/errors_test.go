package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"

	"github.com/victornm/livescore/internal/errors"
)

func TestConvert(t *testing.T) {
	tests := map[string]struct {
		err      error
		wantCode errors.Code
		wantHTTP int
	}{
		"coded error should keep its code": {
			err:      errors.NotFound("game %s not found", "bingo_1"),
			wantCode: errors.CodeNotFound,
			wantHTTP: http.StatusNotFound,
		},
		"wrapped coded error should be found": {
			err:      fmt.Errorf("ingest: %w", errors.InvalidArgument("bad")),
			wantCode: errors.CodeInvalidArgument,
			wantHTTP: http.StatusBadRequest,
		},
		"unavailable should map to 503": {
			err:      errors.Unavailable("closed"),
			wantCode: errors.CodeUnavailable,
			wantHTTP: http.StatusServiceUnavailable,
		},
		"plain error should be internal": {
			err:      stderrors.New("boom"),
			wantCode: errors.CodeInternal,
			wantHTTP: http.StatusInternalServerError,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := errors.Convert(tt.err)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantHTTP, e.HTTPStatusCode())
			assert.Equal(t, codes.Code(tt.wantCode), e.GRPCStatus().Code())
			assert.True(t, errors.Is(tt.err, tt.wantCode) || tt.wantCode == errors.CodeInternal)
		})
	}
}

func TestError_Message(t *testing.T) {
	cause := stderrors.New("redis down")
	e := errors.New(errors.CodeUnavailable, errors.WithMessagef("standings %s", "offline"), errors.WithCause(cause))

	assert.Equal(t, "standings offline", e.Message)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "Unavailable", e.Code.String())
	assert.Contains(t, e.Error(), "redis down")
}
