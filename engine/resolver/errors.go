package resolver

import "errors"

// ErrMergeRejected signals that an override set produced a document failing
// schema re-validation. The offending set is discarded wholesale and the
// pre-merge document is kept; the error exists so callers can log the
// rejected override's origin.
var ErrMergeRejected = errors.New("resolver: merge rejected")

// Origin identifies where an override set came from. It drives precedence
// (env > tenant > base) and is logged on rejection for diagnosis.
type Origin string

const (
	OriginEnv    Origin = "env"
	OriginTenant Origin = "tenant"
)
