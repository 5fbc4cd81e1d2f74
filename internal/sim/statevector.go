package sim

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// StateVector holds the 2^n amplitudes of an n-qubit register. Qubit q is
// bit q of the basis index.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

func NewStateVector(numQubits int) *StateVector {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Apply executes a unitary instruction. Measurement and reset need a random
// source and go through Measure and Reset.
func (s *StateVector) Apply(in Instruction) {
	q := in.Qubits
	switch in.Name {
	case "h":
		s.applyH(q[0])
	case "x":
		s.applyX(q[0])
	case "y":
		s.applyY(q[0])
	case "z":
		s.applyPhase(q[0], -1)
	case "s":
		s.applyPhase(q[0], 1i)
	case "sdg":
		s.applyPhase(q[0], -1i)
	case "t":
		s.applyPhase(q[0], cmplx.Exp(complex(0, math.Pi/4)))
	case "tdg":
		s.applyPhase(q[0], cmplx.Exp(complex(0, -math.Pi/4)))
	case "rx":
		s.applyRX(q[0], in.Params[0])
	case "ry":
		s.applyRY(q[0], in.Params[0])
	case "rz":
		s.applyRZ(q[0], in.Params[0])
	case "p", "u1":
		s.applyPhase(q[0], cmplx.Exp(complex(0, in.Params[0])))
	case "cx":
		s.applyCX(q[0], q[1])
	case "cz":
		s.applyCZ(q[0], q[1])
	case "swap":
		s.applySWAP(q[0], q[1])
	case "ccx":
		s.applyCCX(q[0], q[1], q[2])
	}
}

func (s *StateVector) applyH(q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = hFactor * (a + b)
			s.Amplitudes[j] = hFactor * (a - b)
		}
	}
}

func (s *StateVector) applyX(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyY(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = -1i*s.Amplitudes[j], 1i*s.Amplitudes[i]
		}
	}
}

// applyPhase multiplies the |1> component of qubit q by factor.
func (s *StateVector) applyPhase(q int, factor complex128) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= factor
		}
	}
}

func (s *StateVector) applyRX(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a + js*b
			s.Amplitudes[j] = js*a + c*b
		}
	}
}

func (s *StateVector) applyRY(q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	sn := complex(math.Sin(theta/2), 0)
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = c*a - sn*b
			s.Amplitudes[j] = sn*a + c*b
		}
	}
}

func (s *StateVector) applyRZ(q int, theta float64) {
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta/2))
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= phase
		} else {
			s.Amplitudes[i] *= cmplx.Conj(phase)
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.Amplitudes {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCZ(control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range s.Amplitudes {
		if i&cBit != 0 && i&tBit != 0 {
			s.Amplitudes[i] *= -1
		}
	}
}

func (s *StateVector) applySWAP(q1, q2 int) {
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range s.Amplitudes {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCCX(c1, c2, target int) {
	cBits := 1<<c1 | 1<<c2
	tBit := 1 << target
	for i := range s.Amplitudes {
		if i&cBits == cBits && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Prob1 returns the probability of reading 1 on qubit q.
func (s *StateVector) Prob1(q int) float64 {
	bit := 1 << q
	p := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			p += real(a * cmplx.Conj(a))
		}
	}
	return p
}

// Measure collapses qubit q and returns the outcome.
func (s *StateVector) Measure(q int, rng *rand.Rand) int {
	p1 := s.Prob1(q)
	outcome := 0
	if rng.Float64() < p1 {
		outcome = 1
	}
	s.collapse(q, outcome, p1)
	return outcome
}

// Reset measures qubit q and flips it back to |0> when it read 1.
func (s *StateVector) Reset(q int, rng *rand.Rand) {
	if s.Measure(q, rng) == 1 {
		s.applyX(q)
	}
}

func (s *StateVector) collapse(q, outcome int, p1 float64) {
	bit := 1 << q
	p := p1
	if outcome == 0 {
		p = 1 - p1
	}
	norm := complex(1/math.Sqrt(max(p, 1e-300)), 0)
	for i := range s.Amplitudes {
		if (i&bit != 0) == (outcome == 1) {
			s.Amplitudes[i] *= norm
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

// Probabilities returns |amplitude|^2 per basis state.
func (s *StateVector) Probabilities() []float64 {
	out := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		out[i] = real(a * cmplx.Conj(a))
	}
	return out
}

// Sample draws a basis index from the current distribution.
func (s *StateVector) Sample(rng *rand.Rand) int {
	r := rng.Float64()
	acc := 0.0
	last := 0
	for i, a := range s.Amplitudes {
		p := real(a * cmplx.Conj(a))
		if p == 0 {
			continue
		}
		acc += p
		last = i
		if r < acc {
			return i
		}
	}
	return last
}
