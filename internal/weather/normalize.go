package weather

import (
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"
)

// Normalizer maps raw upstream payloads onto fully populated Readings.
type Normalizer struct {
	clock clockwork.Clock
}

// NewNormalizer creates a Normalizer. A nil clock means real time.
func NewNormalizer(clock clockwork.Clock) *Normalizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Normalizer{clock: clock}
}

// Normalize never fails. Missing paths, values of the wrong JSON type,
// numbers outside the float64 range and payloads that are not JSON at all resolve to field defaults. The timestamp
// is always the normalization instant.
func (n *Normalizer) Normalize(payload []byte) Reading {
	r := DefaultReading(n.clock.Now().UTC())
	if !gjson.ValidBytes(payload) {
		return r
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return r
	}

	for _, f := range numberFields {
		v := root.Get(f.path)
		if v.Type != gjson.Number {
			continue
		}
		// Out-of-range literals such as 1e400 parse to ±Inf, which JSON cannot encode.
		if n := v.Float(); !math.IsInf(n, 0) && !math.IsNaN(n) {
			f.assign(&r, n)
		}
	}
	for _, f := range stringFields {
		v := root.Get(f.path)
		if v.Type == gjson.String && v.Str != "" {
			f.assign(&r, v.Str)
		} else {
			f.assign(&r, f.def)
		}
	}

	return r
}
