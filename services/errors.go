package services

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrUnknownPlayer    = errors.New("entrant references an unknown player")

	ErrDrawNotFound         = errors.New("draw run not found")
	ErrClassNotFound        = errors.New("competition class not found in draw run")
	ErrSnapshotsUnavailable = errors.New("step log is not available for archived draw runs")

	ErrInvalidCredentials = errors.New("invalid organizer password")
	ErrAuthDisabled       = errors.New("organizer login is not configured")
)
