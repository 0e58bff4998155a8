package trace

import "math"

// Stats summarizes a trace.
type Stats struct {
	Count     int     `json:"count"`
	Min       float32 `json:"min"`
	Max       float32 `json:"max"`
	MeanAbs   float32 `json:"mean_abs"`
	Crossings int     `json:"crossings"`
	NonFinite int     `json:"non_finite"`
	// Cycles is filled in by callers that own the sampler; Summarize leaves it 0.
	Cycles uint64 `json:"cycles"`
}

// Summarize computes min, max, mean magnitude and sign changes of samples.
// A crossing is a strict change of sign between nonzero samples; exact zeros
// are skipped.
func Summarize(samples []Sample) Stats {
	st := Stats{Count: len(samples)}
	if len(samples) == 0 {
		return st
	}

	st.Min = float32(math.Inf(1))
	st.Max = float32(math.Inf(-1))

	var sumAbs float64
	// sign of the last nonzero sample; zeros touch the axis without crossing it.
	var sign float32
	for _, s := range samples {
		f := float64(s.V)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			st.NonFinite++
			continue
		}
		if s.V < st.Min {
			st.Min = s.V
		}
		if s.V > st.Max {
			st.Max = s.V
		}
		sumAbs += math.Abs(f)
		if s.V == 0 {
			continue
		}
		if sign != 0 && (sign < 0) != (s.V < 0) {
			st.Crossings++
		}
		sign = s.V
	}

	if finite := len(samples) - st.NonFinite; finite > 0 {
		st.MeanAbs = float32(sumAbs / float64(finite))
	} else {
		st.Min, st.Max = 0, 0
	}
	return st
}
