package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long results stay replayable from the cache
	IdempotencyKeyTTL = 600 * time.Second

	// DefaultExecuteTimeout bounds a single credit/debit including retries
	DefaultExecuteTimeout = 10 * time.Second

	// Cleanup work runs on a context detached from the caller so that a
	// cancelled request still releases its connection.
	rollbackTimeout   = 5 * time.Second
	cacheWriteTimeout = 2 * time.Second
)

// Transaction outcomes reported to Metrics.
const (
	OutcomeCommitted         = "committed"
	OutcomeReplayed          = "replayed"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeConflict          = "conflict"
	OutcomeUnavailable       = "unavailable"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

// Cache operations reported to Metrics.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDecode = "decode"
)
