package indicator

// t3VolumeFactor is Tillson's damping coefficient. The reference oscillator
// uses the conventional 0.7.
const t3VolumeFactor = 0.7

// T3 is the Tillson triple exponential moving average: six chained EMAs
// combined with fixed coefficients derived from the volume factor. It smooths
// the short-term oscillator while staying responsive to new closes.
type T3 struct {
	emas           [6]*EMA
	c1, c2, c3, c4 float64
	current        float64
}

// NewT3 creates a new T3 filter with the given period.
func NewT3(period int) *T3 {
	t := &T3{}
	for i := range t.emas {
		t.emas[i] = NewEMA(period)
	}
	b := t3VolumeFactor
	t.c1 = -b * b * b
	t.c2 = 3*b*b + 3*b*b*b
	t.c3 = -6*b*b - 3*b - 3*b*b*b
	t.c4 = 1 + 3*b + b*b*b + 3*b*b
	return t
}

func (t *T3) Update(v float64) {
	// Each stage is fed only once the stage above it has warmed up, so every
	// EMA sees a clean input stream of the same length semantics.
	in := v
	for _, e := range t.emas {
		e.Update(in)
		if !e.Ready() {
			return
		}
		in = e.Value()
	}

	e := t.emas
	t.current = t.c1*e[5].Value() + t.c2*e[4].Value() + t.c3*e[3].Value() + t.c4*e[2].Value()
}

func (t *T3) Value() float64 { return t.current }
func (t *T3) Ready() bool    { return t.emas[5].Ready() }

// Reset clears all six EMA stages for reuse.
func (t *T3) Reset() {
	for _, e := range t.emas {
		e.Reset()
	}
	t.current = 0
}
