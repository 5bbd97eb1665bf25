package core

import "errors"

// Roll-forward error taxonomy. Fatal errors abort the run;
// ErrNoForwardProgress is a clean early-exit signal, not a failure.
var (
	// ErrConfigMissing means no anchor value has ever been persisted.
	ErrConfigMissing = errors.New("anchor value missing")

	// ErrConfigInvalid means the persisted anchor text cannot be parsed.
	ErrConfigInvalid = errors.New("anchor value invalid")

	// ErrNoForwardProgress means the requested end month is not after the
	// current anchor. Nothing was read or written.
	ErrNoForwardProgress = errors.New("requested end month is not after current anchor")

	// ErrSourceDataMissing means a requested month's source could not be
	// located or yielded zero records. No partial ingestion happens.
	ErrSourceDataMissing = errors.New("source data missing for requested month")

	// ErrPersistenceFailure means a segment write failed. The anchor is
	// not advanced and the run may be retried as-is.
	ErrPersistenceFailure = errors.New("segment persistence failed")
)
