package util

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator hands out unique identifiers for orders, sessions and notifications.
type IDGenerator interface {
	NextID() string
}

// CounterIDs yields "1", "2", ... and is used where ids must be reproducible.
type CounterIDs struct {
	n atomic.Uint64
}

func (c *CounterIDs) NextID() string {
	return strconv.FormatUint(c.n.Add(1), 10)
}

// UUIDs yields random version 4 uuids.
type UUIDs struct{}

func (UUIDs) NextID() string { return uuid.NewString() }

// NewIDGenerator maps a config mode ("counter" or "uuid") to a generator.
func NewIDGenerator(mode string) IDGenerator {
	if mode == "counter" {
		return &CounterIDs{}
	}
	return UUIDs{}
}
