package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind_CodesAndStatuses(t *testing.T) {
	assert.Equal(t, "LICENSE_NOT_FOUND", KindLicenseNotFound.Code())
	assert.Equal(t, http.StatusNotFound, KindLicenseNotFound.HTTPStatus())
	assert.Equal(t, http.StatusGone, KindExpired.HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, KindKeyGenerationExhausted.HTTPStatus())
	assert.Equal(t, "UNKNOWN", ErrorKind(0).Code())
	assert.Equal(t, http.StatusInternalServerError, ErrorKind(0).HTTPStatus())

	codes := make(map[string]struct{})
	for kind := range kinds {
		_, dup := codes[kind.Code()]
		assert.False(t, dup, "duplicate code %s", kind.Code())
		codes[kind.Code()] = struct{}{}
	}
}

func TestLicenseError_Matching(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("generate: %w", storageError("insert license", cause))

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrLicenseNotFound)
	assert.True(t, IsKind(err, KindStorage))
	assert.Equal(t, KindStorage, KindOf(err))
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, KindStorage, KindOf(errors.New("unclassified")))
	assert.False(t, IsKind(nil, KindStorage))
}

func TestSentinelsMatchByKind(t *testing.T) {
	sentinels := map[ErrorKind]error{
		KindInvalidTier:            ErrInvalidTier,
		KindInvalidRequest:         ErrInvalidRequest,
		KindInvalidStatus:          ErrInvalidStatus,
		KindDuplicateKey:           ErrDuplicateKey,
		KindKeyGenerationExhausted: ErrKeyGenerationExhausted,
		KindLicenseNotFound:        ErrLicenseNotFound,
		KindAlreadyActivated:       ErrAlreadyActivated,
		KindSuspended:              ErrSuspended,
		KindExpired:                ErrExpired,
		KindDomainMismatch:         ErrDomainMismatch,
		KindHardwareMismatch:       ErrHardwareMismatch,
		KindStorage:                ErrStorage,
	}
	assert.Len(t, sentinels, len(kinds))

	for kind, sentinel := range sentinels {
		err := fmt.Errorf("wrapped: %w", &LicenseError{Kind: kind, Field: "f", Message: "detail"})
		assert.ErrorIs(t, err, sentinel, kind.Code())
		for other, otherSentinel := range sentinels {
			if other != kind {
				assert.NotErrorIs(t, err, otherSentinel, "%s matched %s", kind.Code(), other.Code())
			}
		}
	}
}

func TestLicenseError_Message(t *testing.T) {
	err := &LicenseError{Kind: KindDomainMismatch, Field: "domain"}
	assert.Equal(t, "domain does not match the license binding (domain)", err.Error())

	err = newError(KindInvalidRequest, "", "license key is required")
	assert.Equal(t, "license key is required", err.Error())
}
