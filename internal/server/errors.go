package server

import "errors"

// Sentinel errors surfaced as -ERR replies by the dispatcher (protocol §6/§7).
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongArity     = errors.New("wrong number of arguments")
	ErrCommandTooLong = errors.New("Command too long")
	ErrTypeMismatch   = errors.New("value is not the requested type")
)
