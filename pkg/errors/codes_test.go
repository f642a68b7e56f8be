package errors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

func TestHTTPStatusForCode(t *testing.T) {
	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeBoundaryNoGeometry, http.StatusBadRequest},
		{errors.ErrCodeBoundaryUnsupported, http.StatusUnsupportedMediaType},
		{errors.ErrCodeAnalysisServiceFailed, http.StatusInternalServerError},
		{errors.ErrCodeAnalysisNotFound, http.StatusNotFound},
		{errors.ErrCodeExternalService, http.StatusBadGateway},
		{errors.ErrorCode("NOPE_999"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, errors.HTTPStatusForCode(tc.code))
		})
	}
}

func TestEveryCodeHasMessage(t *testing.T) {
	for code := range errors.ErrorCodeHTTPStatus {
		_, ok := errors.ErrorCodeMessage[code]
		assert.True(t, ok, "missing default message for %s", code)
	}
	assert.Equal(t, "unknown error", errors.DefaultMessageForCode("NOPE_1"))
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, errors.IsClientError(errors.ErrCodeValidation))
	assert.False(t, errors.IsServerError(errors.ErrCodeValidation))
	assert.True(t, errors.IsServerError(errors.ErrCodeIndexFailed))
}

func TestMasksMessage(t *testing.T) {
	assert.True(t, errors.MasksMessage(errors.ErrCodeInternal))
	assert.True(t, errors.MasksMessage(errors.ErrCodeServiceUnavailable))
	assert.True(t, errors.MasksMessage("NO_SUCH_CODE"))
	assert.False(t, errors.MasksMessage(errors.ErrCodeFeatureDisabled))
	assert.False(t, errors.MasksMessage(errors.ErrCodeValidation))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "BOUNDARY", errors.ModuleForCode(errors.ErrCodeBoundaryInvalid))
	assert.Equal(t, "SCORING", errors.ModuleForCode(errors.ErrCodeScoringProfileInvalid))
	assert.Equal(t, "UNKNOWN", errors.ModuleForCode(errors.CodeOK))
}

//Personal.AI order the ending
