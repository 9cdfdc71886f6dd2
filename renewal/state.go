package renewal

import (
	"strconv"

	"github.com/jonwraymond/ttlrenew/store"
)

// KeyState is the point-in-time classification of one key.
// The set of implementations is closed: Absent, Permanent, Expiring, Expired.
type KeyState interface {
	String() string
	keyState()
}

// Absent means the key does not exist.
type Absent struct{}

// Permanent means the key exists without an expiration.
type Permanent struct{}

// Expiring means the key exists with Remaining > 0 seconds left.
type Expiring struct {
	Remaining int64
}

// Expired means the key reported a non-positive TTL other than the no-expiry
// sentinel, typically because it expired between the existence check and
// the TTL read. Expired keys are never renewed.
type Expired struct {
	Remaining int64
}

func (Absent) keyState()    {}
func (Permanent) keyState() {}
func (Expiring) keyState()  {}
func (Expired) keyState()   {}

func (Absent) String() string    { return "absent" }
func (Permanent) String() string { return "permanent" }
func (s Expiring) String() string {
	return "expiring(" + strconv.FormatInt(s.Remaining, 10) + ")"
}
func (s Expired) String() string {
	return "expired(" + strconv.FormatInt(s.Remaining, 10) + ")"
}

// Classify maps an existence flag and a TTL reply to a KeyState.
func Classify(exists bool, ttl int64) KeyState {
	switch {
	case !exists:
		return Absent{}
	case ttl == store.NoExpiry:
		return Permanent{}
	case ttl > 0:
		return Expiring{Remaining: ttl}
	default:
		return Expired{Remaining: ttl}
	}
}

// stateName returns the metric label for s, without the remaining seconds.
func stateName(s KeyState) string {
	switch s.(type) {
	case Absent:
		return "absent"
	case Permanent:
		return "permanent"
	case Expiring:
		return "expiring"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}
