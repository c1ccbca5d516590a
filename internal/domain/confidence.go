package domain

import (
	"encoding"
	"fmt"
)

// Confidence is the learner's self-reported certainty for an answer.
// It is stored for display only and never changes interval math.
type Confidence int

const (
	StillLearning Confidence = iota + 1
	Almost
	GotIt
)

var (
	confidenceNames  = [...]string{StillLearning: "still_learning", Almost: "almost", GotIt: "got_it"}
	confidenceByName = map[string]Confidence{
		"still_learning": StillLearning,
		"almost":         Almost,
		"got_it":         GotIt,
	}
)

var (
	_ fmt.Stringer             = Confidence(0)
	_ encoding.TextMarshaler   = Confidence(0)
	_ encoding.TextUnmarshaler = (*Confidence)(nil)
)

// Valid reports whether c is one of the three tiers.
func (c Confidence) Valid() bool {
	return c >= StillLearning && c <= GotIt
}

func (c Confidence) String() string {
	if c.Valid() {
		return confidenceNames[c]
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler. The zero value encodes as "".
func (c Confidence) MarshalText() ([]byte, error) {
	if c == 0 {
		return []byte{}, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("invalid confidence: %d", int(c))
	}
	return []byte(confidenceNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = 0
		return nil
	}
	v, ok := confidenceByName[string(text)]
	if !ok {
		return fmt.Errorf("invalid confidence: %q", text)
	}
	*c = v
	return nil
}
