package engine

import (
	"math"
	"math/rand"

	"github.com/spinlab-sim/spinlab/internal/lattice"
)

// StepFunc advances the simulation by one Metropolis trial.
type StepFunc func() error

// StepSource derives the trial the hot loop applies. The loop calls it
// on every (re)entry with the state lock held, so implementations must
// restrict themselves to the lattice handle and the state's atomic
// accessors.
type StepSource func(lat lattice.Lattice, st *State) StepFunc

// DefaultStepSource builds the Metropolis rule matched to the lattice
// variant. rng is owned by the returned trials and must not be shared
// with other goroutines.
func DefaultStepSource(rng *rand.Rand) StepSource {
	return func(lat lattice.Lattice, st *State) StepFunc {
		switch l := lat.(type) {
		case *lattice.Ising:
			return isingTrial(l, st, rng)
		case *lattice.SoftSpin:
			return softSpinTrial(l, st, rng)
		default:
			return func() error { return ErrUnsupportedLattice }
		}
	}
}

// isingTrial flips a random active spin when that is downhill and with
// probability exp(2e/T) otherwise, where e = s·localField is the current
// site energy (e ≥ 0 means flipping lowers it). T ≤ 0 is the explicit
// zero-temperature limit: uphill flips never happen and nothing divides
// by T.
func isingTrial(l *lattice.Ising, st *State, rng *rand.Rand) StepFunc {
	return func() error {
		i, ok := l.RandomActive(rng)
		if !ok {
			return nil
		}
		e := float64(l.Spin(i)) * l.LocalField(i)
		if e >= 0 {
			l.Flip(i)
			return nil
		}
		t := st.Temperature()
		if t <= 0 {
			return nil
		}
		if rng.Float64() < math.Exp(2*e/t) {
			l.Flip(i)
		}
		return nil
	}
}

// softSpinTrial proposes a uniform candidate from the site domain and
// accepts by the Metropolis rule on dE = localField·(cand-cur) plus the
// on-site well term. dE ≤ 0 is always accepted, so the zero-temperature
// limit matches T→0⁺.
func softSpinTrial(l *lattice.SoftSpin, st *State, rng *rand.Rand) StepFunc {
	lo, hi := l.Domain()
	span := hi - lo
	return func() error {
		i, ok := l.RandomActive(rng)
		if !ok {
			return nil
		}
		cur := l.Value(i)
		cand := lo + span*rng.Float64()
		dE := l.LocalField(i)*(cand-cur) + l.WellDelta(cur, cand)
		if dE <= 0 {
			l.SetValue(i, cand)
			return nil
		}
		t := st.Temperature()
		if t <= 0 {
			return nil
		}
		if rng.Float64() < math.Exp(-dE/t) {
			l.SetValue(i, cand)
		}
		return nil
	}
}
