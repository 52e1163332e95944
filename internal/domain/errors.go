package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument marks malformed call-site input (non-positive
	// quantity, negative radius, bad weight sum). A programming error,
	// never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTrade marks a malformed fill record. The engine aborts the
	// batch rather than attempting partial repair.
	ErrInvalidTrade = errors.New("invalid trade record")

	// ErrInsufficientLiquidity and ErrSlippageExceeded are expected,
	// recoverable outcomes of the execution-check gate. Callers react by
	// skipping or resizing the order rather than treating them as bugs.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrSlippageExceeded      = errors.New("slippage exceeded")

	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrContextDone  = errors.New("context cancelled")
)
