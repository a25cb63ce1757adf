package matchmakingservice

import "time"

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always returns the same instant. Useful for interpreting relative
// input against the moment a request was made rather than when it is processed.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock creates an AnchorClock. The zero time anchors to the current UTC time.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }
