package randomx

import (
	"encoding/binary"
	"math/bits"

	"github.com/mxhess/salvium-rs-sub002/hash"
)

// aluOp enumerates the ALU instructions a program's straight-line
// sequence draws from (spec.md §4.7: "ALU/latency-budgeted
// instructions").
type aluOp byte

const (
	opAdd aluOp = iota
	opSub
	opXor
	opMul
	opRotL
	opIMulRcp
	aluOpCount
)

// instruction is one ALU step: dst = dst OP src (or OP imm for
// IMUL_RCP, whose imm is a precomputed reciprocal per spec.md §4.7's
// "IMUL_RCP instructions precompute 2^64/divisor").
type instruction struct {
	op       aluOp
	dst, src byte
	imm      uint64
}

// programLength is the instruction count of one generated program: a
// fixed, moderate latency budget rather than the reference
// implementation's register-dependency-scheduled length.
const programLength = 256

// program is an interpreted SuperscalarHash program (cache-building) or
// a structurally identical per-iteration VM program (hashing): a
// straight-line ALU sequence plus the register whose final value
// addresses the next row lookup (spec.md §4.7).
type program struct {
	instructions    [programLength]instruction
	addressRegister byte
}

// generateProgram deterministically derives a program from key and an
// index (the superscalar program's slot 0-7, or a VM iteration number),
// via BLAKE2b-keyed digests over a domain-separated transcript -- the
// same "keyed BLAKE2b over a domain-separated transcript" construction
// carrot.go uses for its own derivations.
func generateProgram(key []byte, index int) *program {
	p := &program{}
	for i := range p.instructions {
		digest := hash.Blake2b64(key, append(hash.DomainSeparator("RandomX program"), encodeProgramCoords(index, i)...))
		p.instructions[i] = decodeInstruction(digest)
	}
	p.addressRegister = byte(key[0] % 8)
	return p
}

func encodeProgramCoords(index, step int) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[0:8], uint64(index))
	binary.LittleEndian.PutUint64(out[8:16], uint64(step))
	return out
}

func decodeInstruction(b [64]byte) instruction {
	op := aluOp(b[0] % byte(aluOpCount))
	dst := b[1] % 8
	src := b[2] % 8
	imm := binary.LittleEndian.Uint64(b[8:16])

	if op == opIMulRcp {
		imm = reciprocal(imm)
	}
	return instruction{op: op, dst: dst, src: src, imm: imm}
}

// reciprocal computes floor(2^64 / divisor), clamping divisor to at
// least 2 so the division never overflows a uint64 quotient (spec.md
// §4.7's IMUL_RCP precomputation).
func reciprocal(divisor uint64) uint64 {
	if divisor < 2 {
		divisor = 2
	}
	q, _ := bits.Div64(1, 0, divisor)
	return q
}

// execute runs p's instruction sequence against registers in place.
func (p *program) execute(registers *[8]uint64) {
	for _, ins := range p.instructions {
		switch ins.op {
		case opAdd:
			registers[ins.dst] += registers[ins.src] + ins.imm
		case opSub:
			registers[ins.dst] -= registers[ins.src]
		case opXor:
			registers[ins.dst] ^= registers[ins.src] ^ ins.imm
		case opMul:
			registers[ins.dst] *= registers[ins.src] | 1
		case opRotL:
			registers[ins.dst] = bits.RotateLeft64(registers[ins.dst], int(ins.src%64))
		case opIMulRcp:
			registers[ins.dst] *= ins.imm
		}
	}
}
