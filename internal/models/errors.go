package models

import "errors"

var (
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrMissingColumn    = errors.New("missing required column")
	ErrBarsOutOfOrder   = errors.New("bars are not in increasing time order")
	ErrInvalidSide      = errors.New("invalid trade side")
	ErrInvalidRunID     = errors.New("invalid run ID")
	ErrRunNotFound      = errors.New("run not found")
)
