package randomx

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/mxhess/salvium-rs-sub002/hash"
)

// Scratchpad/program-iteration constants (spec.md §4.7's "8 program
// iterations each executing ... against the scratchpad").
const (
	ScratchpadSize    = 2 << 20
	ProgramIterations = 8
)

// VM executes RandomX programs against a Dataset and a per-hash
// scratchpad (spec.md §4.7's "VM hash").
//
// The real RandomX VM expands its input and finalizes its output with
// hardware AES round instructions (AESENC/AESDEC); Go's standard
// crypto/aes only exposes full block-cipher encryption, not a raw
// single-round primitive, and no example in this module's ecosystem
// wraps one either. VM uses AES-CTR keystream generation (stdlib
// crypto/aes + crypto/cipher) as a structurally analogous expansion
// step instead -- see DESIGN.md.
type VM struct {
	dataset    *Dataset
	scratchpad []byte
}

// NewVM constructs a VM bound to dataset, with a fresh scratchpad.
func NewVM(dataset *Dataset) *VM {
	return &VM{dataset: dataset, scratchpad: make([]byte, ScratchpadSize)}
}

// Hash computes the RandomX hash of input: an AES keystream expansion
// seeds the scratchpad and a BLAKE2b-512 digest of input seeds the
// register file, then ProgramIterations rounds
// each generate and execute a program against the registers, mix in the
// dataset item the program's address register selects, and fold the
// result into the scratchpad; a final BLAKE2b digest over the register
// file and a scratchpad checksum produces the 32-byte output (spec.md
// §4.7).
func (vm *VM) Hash(input []byte) [32]byte {
	copy(vm.scratchpad, aesKeystream(input, len(vm.scratchpad)))

	seed := hash.Blake2b64(nil, input)
	var regs [8]uint64
	for i := range regs {
		regs[i] = binary.LittleEndian.Uint64(seed[i*8 : i*8+8])
	}

	for iter := 0; iter < ProgramIterations; iter++ {
		iterSeed := append(append([]byte(nil), seed[:]...), byte(iter))
		key := hash.Blake2b32(nil, iterSeed)
		prog := generateProgram(key[:], iter)
		prog.execute(&regs)

		item := vm.dataset.Item(regs[prog.addressRegister])
		for i := 0; i < 8; i++ {
			regs[i] ^= binary.LittleEndian.Uint64(item[i*8 : i*8+8])
		}

		vm.mixScratchpad(&regs)
	}

	var regBytes [64]byte
	for i, r := range regs {
		binary.LittleEndian.PutUint64(regBytes[i*8:i*8+8], r)
	}
	checksum := hash.Keccak256(vm.scratchpad)
	return hash.Blake2b32(nil, append(regBytes[:], checksum[:]...))
}

// mixScratchpad folds regs into the scratchpad window regs[0] selects,
// then feeds the window back into regs -- a structural stand-in for the
// reference VM's read/write scratchpad access pattern.
func (vm *VM) mixScratchpad(regs *[8]uint64) {
	window := uint64(len(vm.scratchpad) - 64)
	offset := int(regs[0]%window) &^ 7

	for i := 0; i < 8; i++ {
		cell := vm.scratchpad[offset+i*8 : offset+i*8+8]
		v := binary.LittleEndian.Uint64(cell) ^ regs[i]
		binary.LittleEndian.PutUint64(cell, v)
		regs[i] = v
	}
}

// aesKeystream fills size bytes of AES-CTR keystream seeded by seed.
func aesKeystream(seed []byte, size int) []byte {
	key := hash.Blake2b32(nil, seed)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic("randomx: aes.NewCipher: " + err.Error())
	}
	var iv [aes.BlockSize]byte
	out := make([]byte, size)
	cipher.NewCTR(block, iv[:]).XORKeyStream(out, out)
	return out
}
