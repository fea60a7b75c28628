// Package broadcast carries key/value change notifications between
// application instances. Every message names the key that changed and its new
// value; receivers never diff, they overwrite.
package broadcast

import (
	"context"
	"fmt"
	"os"
)

// Message is one broadcast delivery.
type Message struct {
	Key      string `json:"key"`
	NewValue string `json:"new_value"`
}

// Well-known broadcast keys.
const (
	// KeyActiveSession announces the session id an operator switched to.
	KeyActiveSession = "active_session"
	// KeyPublicSession announces the session id currently published, or an
	// empty value when publication was cleared.
	KeyPublicSession = "public_session"
)

// Channel is a fan-out pipe for Messages. Subscribe returns a stream and a
// cancel function; the stream closes when cancelled.
type Channel interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context) (<-chan Message, func())
	Close() error
}

// Environment variables controlling the broadcast driver.
const (
	EnvDriver    = "STAFFMAP_BROADCAST_DRIVER"
	EnvRedisAddr = "STAFFMAP_REDIS_ADDR"
)

// Supported driver names.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Open constructs a Channel from environment configuration. The default is
// the in-process memory driver.
func Open() (Channel, error) {
	driver := os.Getenv(EnvDriver)
	if driver == "" {
		driver = DriverMemory
	}
	switch driver {
	case DriverMemory:
		return NewMemoryChannel(), nil
	case DriverRedis:
		addr := os.Getenv(EnvRedisAddr)
		if addr == "" {
			addr = "localhost:6379"
		}
		return NewRedisChannel(addr), nil
	default:
		return nil, fmt.Errorf("unsupported broadcast driver %q", driver)
	}
}
