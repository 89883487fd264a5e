package randomx

import "math/big"

// TargetFromDifficulty converts a network difficulty into the maximum
// hash value (interpreted as a little-endian 256-bit integer) that
// satisfies it: target = floor((2^256 - 1) / difficulty), per spec.md
// §4.7's difficulty check.
func TargetFromDifficulty(difficulty uint64) *big.Int {
	if difficulty == 0 {
		difficulty = 1
	}
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	return new(big.Int).Div(max, new(big.Int).SetUint64(difficulty))
}

// CheckDifficulty reports whether hash (little-endian) satisfies
// difficulty: hash*difficulty <= 2^256-1 (spec.md §4.7).
func CheckDifficulty(hash [32]byte, difficulty uint64) bool {
	h := leBytesToInt(hash)
	return h.Cmp(TargetFromDifficulty(difficulty)) <= 0
}

func leBytesToInt(b [32]byte) *big.Int {
	rev := make([]byte, 32)
	for i, v := range b {
		rev[31-i] = v
	}
	return new(big.Int).SetBytes(rev)
}
