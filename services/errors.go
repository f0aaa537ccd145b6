package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure the license authority can report.
type ErrorKind int

const (
	KindInvalidTier ErrorKind = iota + 1
	KindInvalidRequest
	KindInvalidStatus
	KindDuplicateKey
	KindKeyGenerationExhausted
	KindLicenseNotFound
	KindAlreadyActivated
	KindSuspended
	KindExpired
	KindDomainMismatch
	KindHardwareMismatch
	KindStorage
)

type kindInfo struct {
	code    string
	status  int
	message string
}

var kinds = map[ErrorKind]kindInfo{
	KindInvalidTier:            {"INVALID_TIER", http.StatusBadRequest, "unknown license tier"},
	KindInvalidRequest:         {"INVALID_REQUEST", http.StatusBadRequest, "invalid request"},
	KindInvalidStatus:          {"INVALID_STATUS", http.StatusBadRequest, "invalid license status"},
	KindDuplicateKey:           {"DUPLICATE_KEY", http.StatusConflict, "license key already exists"},
	KindKeyGenerationExhausted: {"KEY_GENERATION_EXHAUSTED", http.StatusServiceUnavailable, "could not generate a unique license key"},
	KindLicenseNotFound:        {"LICENSE_NOT_FOUND", http.StatusNotFound, "license not found"},
	KindAlreadyActivated:       {"ALREADY_ACTIVATED", http.StatusConflict, "license already activated"},
	KindSuspended:              {"LICENSE_SUSPENDED", http.StatusForbidden, "license is suspended"},
	KindExpired:                {"LICENSE_EXPIRED", http.StatusGone, "license has expired"},
	KindDomainMismatch:         {"DOMAIN_MISMATCH", http.StatusForbidden, "domain does not match the license binding"},
	KindHardwareMismatch:       {"HARDWARE_MISMATCH", http.StatusForbidden, "hardware does not match the license binding"},
	KindStorage:                {"STORAGE_ERROR", http.StatusInternalServerError, "license storage failure"},
}

// Code returns the stable machine readable code of the kind.
func (k ErrorKind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return "UNKNOWN"
}

// HTTPStatus returns the status code the kind maps to on the HTTP surface.
func (k ErrorKind) HTTPStatus() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k ErrorKind) String() string { return k.Code() }

// LicenseError is the single error type returned by the authority and the stores.
type LicenseError struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *LicenseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = kinds[e.Kind].message
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *LicenseError) Unwrap() error { return e.Err }

// Is matches another *LicenseError by kind, so errors.Is(err, ErrLicenseNotFound) works.
func (e *LicenseError) Is(target error) bool {
	var t *LicenseError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidTier            = &LicenseError{Kind: KindInvalidTier}
	ErrInvalidRequest         = &LicenseError{Kind: KindInvalidRequest}
	ErrInvalidStatus          = &LicenseError{Kind: KindInvalidStatus}
	ErrDuplicateKey           = &LicenseError{Kind: KindDuplicateKey}
	ErrKeyGenerationExhausted = &LicenseError{Kind: KindKeyGenerationExhausted}
	ErrLicenseNotFound        = &LicenseError{Kind: KindLicenseNotFound}
	ErrAlreadyActivated       = &LicenseError{Kind: KindAlreadyActivated}
	ErrSuspended              = &LicenseError{Kind: KindSuspended}
	ErrExpired                = &LicenseError{Kind: KindExpired}
	ErrDomainMismatch         = &LicenseError{Kind: KindDomainMismatch}
	ErrHardwareMismatch       = &LicenseError{Kind: KindHardwareMismatch}
	ErrStorage                = &LicenseError{Kind: KindStorage}
)

func newError(kind ErrorKind, field, message string) *LicenseError {
	return &LicenseError{Kind: kind, Field: field, Message: message}
}

func storageError(op string, err error) *LicenseError {
	return &LicenseError{Kind: KindStorage, Message: op, Err: err}
}

// KindOf extracts the kind from err. Unclassified errors report KindStorage.
func KindOf(err error) ErrorKind {
	var le *LicenseError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindStorage
}

// IsKind reports whether err is a *LicenseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var le *LicenseError
	return errors.As(err, &le) && le.Kind == kind
}
