package cart

import "errors"

var (
	// ErrInvalidSyncConfig is returned when sync coordinator configuration is invalid
	ErrInvalidSyncConfig = errors.New("invalid sync coordinator configuration")

	// ErrSnapshotCorrupt is returned when a persisted snapshot cannot be decoded at all
	ErrSnapshotCorrupt = errors.New("persisted cart snapshot is corrupt")
)
