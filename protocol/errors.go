package protocol

import "errors"

var (
	errEmptyAccount      = errors.New("protocol: account name must not be empty")
	errNonPositiveAmount = errors.New("protocol: amount must be positive")
	errInvalidPercent    = errors.New("protocol: percent out of range")
	errInvalidTimeRange  = errors.New("protocol: end time must be after start time")
	errInvalidCapRange   = errors.New("protocol: hard cap must not be less than soft cap")
	errEmptyProposal     = errors.New("protocol: proposal must contain at least one operation")
)
