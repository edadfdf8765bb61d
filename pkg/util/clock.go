package util

import (
	"github.com/benbjohnson/clock"
)

// Clock is the time source handed to components that schedule work.
// Production uses NewClock; tests drive a clock.NewMock() by hand.
type Clock = clock.Clock

// Timer is the handle returned by Clock.AfterFunc.
type Timer = clock.Timer

func NewClock() Clock { return clock.New() }
