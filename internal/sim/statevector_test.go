package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func gate(name string, qubits ...int) Instruction {
	return Instruction{Name: name, Qubits: qubits}
}

func assertProbs(t *testing.T, want []float64, s *StateVector) {
	t.Helper()
	got := s.Probabilities()
	assert.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "basis %d", i)
	}
}

func TestBellState(t *testing.T) {
	s := NewStateVector(2)
	s.Apply(gate("h", 0))
	s.Apply(gate("cx", 0, 1))
	assertProbs(t, []float64{0.5, 0, 0, 0.5}, s)
}

func TestPauliY(t *testing.T) {
	s := NewStateVector(1)
	s.Apply(gate("y", 0))
	assert.InDelta(t, 0, real(s.Amplitudes[1]), 1e-12)
	assert.InDelta(t, 1, imag(s.Amplitudes[1]), 1e-12)
}

func TestToffoli(t *testing.T) {
	s := NewStateVector(3)
	s.Apply(gate("x", 0))
	s.Apply(gate("ccx", 0, 1, 2))
	assertProbs(t, []float64{0, 1, 0, 0, 0, 0, 0, 0}, s)

	s.Apply(gate("x", 1))
	s.Apply(gate("ccx", 0, 1, 2))
	assertProbs(t, []float64{0, 0, 0, 0, 0, 0, 0, 1}, s)
}

func TestSwap(t *testing.T) {
	s := NewStateVector(2)
	s.Apply(gate("x", 0))
	s.Apply(gate("swap", 0, 1))
	assertProbs(t, []float64{0, 0, 1, 0}, s)
}

func TestRotationsAndPhases(t *testing.T) {
	s := NewStateVector(1)
	s.Apply(Instruction{Name: "ry", Qubits: []int{0}, Params: []float64{math.Pi}})
	assertProbs(t, []float64{0, 1}, s)

	s = NewStateVector(1)
	s.Apply(gate("h", 0))
	s.Apply(gate("s", 0))
	s.Apply(gate("s", 0))
	s.Apply(gate("h", 0))
	assertProbs(t, []float64{0, 1}, s) // S*S = Z, HZH = X

	s = NewStateVector(1)
	s.Apply(gate("h", 0))
	s.Apply(gate("t", 0))
	s.Apply(gate("tdg", 0))
	s.Apply(gate("h", 0))
	assertProbs(t, []float64{1, 0}, s)
}

func TestMeasureCollapses(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		s := NewStateVector(2)
		s.Apply(gate("h", 0))
		s.Apply(gate("cx", 0, 1))
		m0 := s.Measure(0, rng)
		assert.InDelta(t, float64(m0), s.Prob1(1), 1e-9, "entangled partner follows the outcome")
	}
}

func TestReset(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	s := NewStateVector(1)
	s.Apply(gate("h", 0))
	s.Reset(0, rng)
	assertProbs(t, []float64{1, 0}, s)
}
