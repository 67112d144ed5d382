package types

import "errors"

// Request validation errors. A validation failure aborts the whole batch
// transaction; no partial effects remain.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidToken    = errors.New("invalid page or change-log token")
	ErrUnsupportedType = errors.New("unsupported record type")
	ErrNotFound        = errors.New("record not found")
)

// Authorization and feature-gate errors.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrFeatureDisabled  = errors.New("feature disabled")
)

// Change-log feed errors.
var (
	// ErrTokenExpired means the token's log position has been removed by
	// retention cleanup. Callers must re-enumerate from scratch.
	ErrTokenExpired = errors.New("change-log token expired")
)

// Store lifecycle and IO errors.
var (
	ErrStoreClosed        = errors.New("store is closed")
	ErrIOFailure          = errors.New("io failure")
	ErrSchemaIncompatible = errors.New("schema version newer than supported")
)

// Future errors.
var (
	// ErrWaitTimeout is returned by Future.Wait when the wait bound
	// elapses. The underlying transaction still runs to completion.
	ErrWaitTimeout = errors.New("wait timed out")
)

// Config validation errors.
var (
	ErrDataDirEmpty     = errors.New("data dir must not be empty")
	ErrRetentionInvalid = errors.New("retention days must not be negative")
)
