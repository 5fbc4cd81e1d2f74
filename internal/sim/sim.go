// Package sim runs generated OpenQASM code and returns a measurement
// histogram. Local executes it on an in-process state vector; Remote posts it
// to a simulation endpoint.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultShots is the shot count used when a caller passes zero.
const DefaultShots = 1000

var (
	ErrNoMeasurement = errors.New("circuit has no measurements")
	ErrTooManyQubits = errors.New("too many qubits to simulate")
)

// Simulator executes source code for a number of shots.
type Simulator interface {
	Run(ctx context.Context, code string, shots int) (*Result, error)
}

// Result is a measurement histogram keyed by classical bitstring, highest
// bit first.
type Result struct {
	ID      uuid.UUID      `json:"id"`
	Backend string         `json:"backend"`
	Shots   int            `json:"shots"`
	Counts  map[string]int `json:"counts"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Local simulates OpenQASM 2.0 in process.
type Local struct {
	MaxQubits int    // zero means no limit
	Seed      uint64 // zero draws a fresh seed per run
	Log       *slog.Logger
}

// Run parses code and executes it shots times.
func (l *Local) Run(ctx context.Context, code string, shots int) (*Result, error) {
	if shots <= 0 {
		shots = DefaultShots
	}
	prog, err := ParseQASM(code)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if l.MaxQubits > 0 && prog.Qubits > l.MaxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, prog.Qubits, l.MaxQubits)
	}
	if !prog.Measured() {
		return nil, ErrNoMeasurement
	}

	seed := l.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	start := time.Now()
	counts, err := execute(ctx, prog, shots, rng)
	if err != nil {
		return nil, err
	}
	res := &Result{
		ID:      uuid.New(),
		Backend: "local",
		Shots:   shots,
		Counts:  counts,
		Elapsed: time.Since(start),
	}
	if l.Log != nil {
		l.Log.Debug("Simulation finished", "id", res.ID, "qubits", prog.Qubits, "shots", shots, "outcomes", len(counts), "elapsed", res.Elapsed)
	}
	return res, nil
}

// execute runs the program. When every measurement is terminal the state is
// prepared once and sampled; otherwise each shot is simulated in full.
func execute(ctx context.Context, prog *Program, shots int, rng *rand.Rand) (map[string]int, error) {
	counts := make(map[string]int)
	clbits := make([]byte, prog.Clbits)

	if cut, ok := terminalMeasurements(prog); ok {
		state := NewStateVector(prog.Qubits)
		for _, in := range prog.Instructions[:cut] {
			state.Apply(in)
		}
		for shot := 0; shot < shots; shot++ {
			if shot%256 == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			basis := state.Sample(rng)
			resetBits(clbits)
			for _, in := range prog.Instructions[cut:] {
				clbits[in.Clbit] = byte('0' + (basis>>in.Qubits[0])&1)
			}
			counts[bitstring(clbits)]++
		}
		return counts, nil
	}

	for shot := 0; shot < shots; shot++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		state := NewStateVector(prog.Qubits)
		resetBits(clbits)
		for _, in := range prog.Instructions {
			switch in.Name {
			case "measure":
				clbits[in.Clbit] = byte('0' + state.Measure(in.Qubits[0], rng))
			case "reset":
				state.Reset(in.Qubits[0], rng)
			default:
				state.Apply(in)
			}
		}
		counts[bitstring(clbits)]++
	}
	return counts, nil
}

// terminalMeasurements returns the index of the first measurement when
// nothing but measurements follows it and the program has no reset.
func terminalMeasurements(prog *Program) (int, bool) {
	cut := -1
	for i, in := range prog.Instructions {
		if in.Name == "measure" {
			if cut < 0 {
				cut = i
			}
			continue
		}
		if cut >= 0 || in.Name == "reset" {
			return 0, false
		}
	}
	if cut < 0 {
		return 0, false
	}
	return cut, true
}

func resetBits(b []byte) {
	for i := range b {
		b[i] = '0'
	}
}

// bitstring renders classical bits with the highest index first.
func bitstring(bits []byte) string {
	var sb strings.Builder
	for i := len(bits) - 1; i >= 0; i-- {
		sb.WriteByte(bits[i])
	}
	return sb.String()
}
