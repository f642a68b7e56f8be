package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New / Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.CodeInternal, "unexpected failure"},
		{"no geometry", errors.ErrCodeBoundaryNoGeometry, "No valid geometry found in KML file."},
		{"remote failure", errors.ErrCodeAnalysisServiceFailed, "analysis failed"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.ErrCodeBoundaryInvalid, "ring not closed")
	assert.Equal(t, "[BOUNDARY_001] ring not closed", ae.Error())

	withDetail := ae.WithDetail("site=north")
	assert.Equal(t, "[BOUNDARY_001] ring not closed: site=north", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")

	wrapped := errors.Wrap(fmt.Errorf("dial tcp: refused"), errors.ErrCodeExternalService, "overpass unreachable")
	assert.Equal(t, "[COMMON_014] overpass unreachable (dial tcp: refused)", wrapped.Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "x"))
	assert.Nil(t, errors.Wrapf(nil, errors.CodeInternal, "x %d", 1))
}

func TestWrap_UnknownKeepsOriginalCode(t *testing.T) {
	inner := errors.New(errors.ErrCodeAnalysisServiceFailed, "remote 500")
	outer := errors.Wrap(inner, errors.CodeUnknown, "site north")
	assert.Equal(t, errors.ErrCodeAnalysisServiceFailed, outer.Code)

	outerf := errors.Wrapf(inner, errors.CodeUnknown, "site %s", "south")
	assert.Equal(t, errors.ErrCodeAnalysisServiceFailed, outerf.Code)
	assert.Equal(t, "site south", outerf.Message)
}

func TestWrap_ChainTraversal(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	ae := errors.Wrap(sentinel, errors.ErrCodeDatabaseError, "query failed")
	assert.True(t, stderrors.Is(ae, sentinel))
	assert.True(t, errors.Is(ae, sentinel))

	var target *errors.AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", ae), &target))
	assert.Equal(t, errors.ErrCodeDatabaseError, target.Code)
}

func TestNilReceiverBuilders(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode(t *testing.T) {
	ae := errors.New(errors.ErrCodeCacheMiss, "miss")
	wrapped := fmt.Errorf("ctx: %w", ae)
	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeCacheMiss))
	assert.False(t, errors.IsCode(wrapped, errors.CodeInternal))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", errors.NotFound("x"), true},
		{"analysis", errors.New(errors.ErrCodeAnalysisNotFound, "x"), true},
		{"object", errors.New(errors.ErrCodeStorageObjectNotFound, "x"), true},
		{"wrapped", fmt.Errorf("a: %w", errors.NotFound("x")), true},
		{"internal", errors.Internal("x"), false},
		{"plain", stderrors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.IsNotFound(tc.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("x")))
	assert.Equal(t, errors.CodeConflict, errors.GetCode(fmt.Errorf("w: %w", errors.Conflict("x"))))
}

func TestConvenienceFactories(t *testing.T) {
	assert.Equal(t, errors.CodeInvalidParam, errors.InvalidParam("x").Code)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.Unavailable("x").Code)
	assert.Equal(t, http.StatusServiceUnavailable, errors.HTTPStatusForCode(errors.Unavailable("x").Code))
	assert.Equal(t, "site 3 of 4", errors.Newf(errors.CodeInternal, "site %d of %d", 3, 4).Message)
}

//Personal.AI order the ending
