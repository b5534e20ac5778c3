package service

import "errors"

// Sentinel kinds for tracker errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrRestartMap     = errors.New("map restart failed")
)
