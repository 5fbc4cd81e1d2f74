package codegen

import (
	"fmt"
	"strings"

	"qcomposer/internal/circuit"
)

type qasmRenderer struct{}

func (qasmRenderer) Dialect() Dialect  { return OpenQASM }
func (qasmRenderer) Title() string     { return "OPENQASM 2.0" }
func (qasmRenderer) Extension() string { return ".qasm" }

// Render generates OpenQASM 2.0 with one classical bit per qubit.
func (qasmRenderer) Render(c circuit.Circuit) string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", c.Qubits)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", c.Qubits)

	for _, op := range ordered(c) {
		q := op.Operands
		switch op.Kind {
		case circuit.M:
			fmt.Fprintf(&sb, "measure q[%d] -> c[%d];\n", q[0], q[0])
		case circuit.CX, circuit.CZ, circuit.SWAP:
			fmt.Fprintf(&sb, "%s q[%d], q[%d];\n", strings.ToLower(string(op.Kind)), q[0], q[1])
		case circuit.TOFFOLI:
			fmt.Fprintf(&sb, "ccx q[%d], q[%d], q[%d];\n", q[0], q[1], q[2])
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T:
			fmt.Fprintf(&sb, "%s q[%d];\n", strings.ToLower(string(op.Kind)), q[0])
		default:
			unknownKind(op.Kind)
		}
	}
	return sb.String()
}

type qiskitRenderer struct{}

func (qiskitRenderer) Dialect() Dialect  { return Qiskit }
func (qiskitRenderer) Title() string     { return "Qiskit" }
func (qiskitRenderer) Extension() string { return ".py" }

// Render generates a Qiskit program building the circuit on named registers.
func (qiskitRenderer) Render(c circuit.Circuit) string {
	var sb strings.Builder
	sb.WriteString("from qiskit import QuantumRegister, ClassicalRegister, QuantumCircuit\n\n")
	fmt.Fprintf(&sb, "q = QuantumRegister(%d, 'q')\n", c.Qubits)
	fmt.Fprintf(&sb, "c = ClassicalRegister(%d, 'c')\n", c.Qubits)
	sb.WriteString("qc = QuantumCircuit(q, c)\n\n")

	for _, op := range ordered(c) {
		q := op.Operands
		switch op.Kind {
		case circuit.M:
			fmt.Fprintf(&sb, "qc.measure(q[%d], c[%d])\n", q[0], q[0])
		case circuit.CX, circuit.CZ, circuit.SWAP:
			fmt.Fprintf(&sb, "qc.%s(q[%d], q[%d])\n", strings.ToLower(string(op.Kind)), q[0], q[1])
		case circuit.TOFFOLI:
			fmt.Fprintf(&sb, "qc.ccx(q[%d], q[%d], q[%d])\n", q[0], q[1], q[2])
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T:
			fmt.Fprintf(&sb, "qc.%s(q[%d])\n", strings.ToLower(string(op.Kind)), q[0])
		default:
			unknownKind(op.Kind)
		}
	}
	return sb.String()
}

type quilRenderer struct{}

func (quilRenderer) Dialect() Dialect  { return Quil }
func (quilRenderer) Title() string     { return "Quil" }
func (quilRenderer) Extension() string { return ".quil" }

// Render generates Quil. Measurements write into a declared "ro" register,
// indexed by qubit.
func (quilRenderer) Render(c circuit.Circuit) string {
	ops := ordered(c)
	var sb strings.Builder
	for _, op := range ops {
		if op.Kind == circuit.M {
			fmt.Fprintf(&sb, "DECLARE ro BIT[%d]\n\n", c.Qubits)
			break
		}
	}

	for _, op := range ops {
		q := op.Operands
		switch op.Kind {
		case circuit.M:
			fmt.Fprintf(&sb, "MEASURE %d ro[%d]\n", q[0], q[0])
		case circuit.CX:
			fmt.Fprintf(&sb, "CNOT %d %d\n", q[0], q[1])
		case circuit.CZ, circuit.SWAP:
			fmt.Fprintf(&sb, "%s %d %d\n", op.Kind, q[0], q[1])
		case circuit.TOFFOLI:
			fmt.Fprintf(&sb, "CCNOT %d %d %d\n", q[0], q[1], q[2])
		case circuit.H, circuit.X, circuit.Y, circuit.Z, circuit.S, circuit.T:
			fmt.Fprintf(&sb, "%s %d\n", op.Kind, q[0])
		default:
			unknownKind(op.Kind)
		}
	}
	return sb.String()
}

// unknownKind aborts rendering of an operator no dialect knows how to spell.
func unknownKind(kind circuit.Kind) {
	panic(fmt.Sprintf("codegen: no statement for operator kind %q", kind))
}
