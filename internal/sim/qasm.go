package sim

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	headerRegex  = regexp.MustCompile(`^OPENQASM\s+(\d+(?:\.\d+)?)$`)
	includeRegex = regexp.MustCompile(`^include\s+"[^"]*"$`)
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(\w+)\s*\[\s*(\d+)\s*\]\s*->\s*(\w+)\s*\[\s*(\d+)\s*\]$`)
	resetRegex   = regexp.MustCompile(`^reset\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	barrierRegex = regexp.MustCompile(`^barrier(?:\s+.*)?$`)
	gateRegex    = regexp.MustCompile(`^(\w+)\s*(?:\(([^)]*)\))?\s+(.+)$`)
	operandRegex = regexp.MustCompile(`^(\w+)\s*\[\s*(\d+)\s*\]$`)
)

// gateSpec is the operand and parameter count of a supported gate.
type gateSpec struct {
	qubits, params int
}

var gateSpecs = map[string]gateSpec{
	"id": {1, 0}, "h": {1, 0}, "x": {1, 0}, "y": {1, 0}, "z": {1, 0},
	"s": {1, 0}, "sdg": {1, 0}, "t": {1, 0}, "tdg": {1, 0},
	"rx": {1, 1}, "ry": {1, 1}, "rz": {1, 1}, "p": {1, 1}, "u1": {1, 1},
	"cx": {2, 0}, "cz": {2, 0}, "swap": {2, 0},
	"ccx": {3, 0},
}

// Instruction is one executable statement.
type Instruction struct {
	Name   string // lower-case gate name, or "measure" / "reset"
	Qubits []int
	Params []float64
	Clbit  int // classical bit written by a measurement
	Line   int
}

// Program is a parsed OpenQASM 2.0 source with a single quantum and a
// single classical register.
type Program struct {
	QReg, CReg     string
	Qubits, Clbits int
	Instructions   []Instruction
}

// SyntaxError reports a statement the parser could not accept.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Measured reports whether the program measures anything.
func (p *Program) Measured() bool {
	return slices.ContainsFunc(p.Instructions, func(in Instruction) bool {
		return in.Name == "measure"
	})
}

// ParseQASM parses OpenQASM 2.0 source. Statements end with ';' and may not
// span lines; "//" starts a comment.
func ParseQASM(src string) (*Program, error) {
	p := &Program{}
	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt, lineNo); err != nil {
				return nil, err
			}
		}
	}
	if p.Qubits == 0 {
		return nil, &SyntaxError{Line: 1, Msg: "no qreg declared"}
	}
	return p, nil
}

func (p *Program) statement(stmt string, line int) error {
	fail := func(format string, args ...any) error {
		return &SyntaxError{Line: line, Msg: fmt.Sprintf(format, args...)}
	}

	if m := headerRegex.FindStringSubmatch(stmt); m != nil {
		if !strings.HasPrefix(m[1], "2") {
			return fail("unsupported OPENQASM version %s", m[1])
		}
		return nil
	}
	if includeRegex.MatchString(stmt) {
		return nil
	}
	if m := qregRegex.FindStringSubmatch(stmt); m != nil {
		if p.QReg != "" {
			return fail("only one qreg is supported")
		}
		n, _ := strconv.Atoi(m[2])
		if n == 0 {
			return fail("qreg %s has no qubits", m[1])
		}
		p.QReg, p.Qubits = m[1], n
		return nil
	}
	if m := cregRegex.FindStringSubmatch(stmt); m != nil {
		if p.CReg != "" {
			return fail("only one creg is supported")
		}
		n, _ := strconv.Atoi(m[2])
		p.CReg, p.Clbits = m[1], n
		return nil
	}
	if barrierRegex.MatchString(stmt) {
		return nil
	}
	if p.QReg == "" {
		return fail("statement before qreg declaration: %q", stmt)
	}

	// Measurement: "measure q[0] -> c[0]"
	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1], m[2])
		if err != nil {
			return fail("%v", err)
		}
		if m[3] != p.CReg {
			return fail("unknown classical register %q", m[3])
		}
		c, _ := strconv.Atoi(m[4])
		if c >= p.Clbits {
			return fail("classical bit %s[%d] out of range", m[3], c)
		}
		p.Instructions = append(p.Instructions, Instruction{Name: "measure", Qubits: []int{q}, Clbit: c, Line: line})
		return nil
	}

	if m := resetRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1], m[2])
		if err != nil {
			return fail("%v", err)
		}
		p.Instructions = append(p.Instructions, Instruction{Name: "reset", Qubits: []int{q}, Line: line})
		return nil
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fail("cannot parse %q", stmt)
	}
	name := strings.ToLower(m[1])
	spec, ok := gateSpecs[name]
	if !ok {
		return fail("unsupported gate %q", m[1])
	}
	params, err := parseAngles(m[2])
	if err != nil {
		return fail("%s: %v", name, err)
	}
	if len(params) != spec.params {
		return fail("%s takes %d parameter(s), got %d", name, spec.params, len(params))
	}
	args := strings.Split(m[3], ",")
	if len(args) != spec.qubits {
		return fail("%s takes %d qubit(s), got %d", name, spec.qubits, len(args))
	}
	qubits := make([]int, len(args))
	for i, arg := range args {
		om := operandRegex.FindStringSubmatch(strings.TrimSpace(arg))
		if om == nil {
			return fail("%s: bad operand %q", name, strings.TrimSpace(arg))
		}
		q, err := p.qubit(om[1], om[2])
		if err != nil {
			return fail("%s: %v", name, err)
		}
		if slices.Contains(qubits[:i], q) {
			return fail("%s: qubit %d used twice", name, q)
		}
		qubits[i] = q
	}
	p.Instructions = append(p.Instructions, Instruction{Name: name, Qubits: qubits, Params: params, Line: line})
	return nil
}

func (p *Program) qubit(reg, idx string) (int, error) {
	if reg != p.QReg {
		return 0, fmt.Errorf("unknown quantum register %q", reg)
	}
	q, _ := strconv.Atoi(idx)
	if q >= p.Qubits {
		return 0, fmt.Errorf("qubit %s[%d] out of range", reg, q)
	}
	return q, nil
}
