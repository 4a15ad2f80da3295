package io

import (
	"errors"

	"github.com/ezrec/intcode/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull     = errors.New(f("channel full"))
	ErrChannelReadOnly = errors.New(f("channel read only"))
)

// ErrTapeSyntax is a tape token that is not a decimal integer.
type ErrTapeSyntax string

func (err ErrTapeSyntax) Error() string {
	return f("tape '%v' is not a number", string(err))
}
