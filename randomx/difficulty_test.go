package randomx

import "testing"

func TestCheckDifficultyAllZerosAlwaysPasses(t *testing.T) {
	if !CheckDifficulty([32]byte{}, 1_000_000) {
		t.Fatal("an all-zero hash must satisfy any difficulty")
	}
}

func TestCheckDifficultyAllOnesOnlyPassesAtDifficultyOne(t *testing.T) {
	var h [32]byte
	for i := range h {
		h[i] = 0xff
	}
	if !CheckDifficulty(h, 1) {
		t.Fatal("max hash must satisfy difficulty 1")
	}
	if CheckDifficulty(h, 2) {
		t.Fatal("max hash must not satisfy difficulty 2")
	}
}

func TestCheckDifficultyHigherDifficultyIsStricter(t *testing.T) {
	h := [32]byte{}
	h[31] = 0x01 // little-endian, so h = 2^248

	// (2^256-1)/100 is about 2^249.4, above h; (2^256-1)/2^62 is about
	// 2^194, below it.
	if !CheckDifficulty(h, 100) {
		t.Fatal("hash 2^248 should satisfy difficulty 100")
	}
	if CheckDifficulty(h, 1<<62) {
		t.Fatal("hash 2^248 should not satisfy difficulty 2^62")
	}
}

func TestTargetFromDifficultyIsMonotonicallyDecreasing(t *testing.T) {
	low := TargetFromDifficulty(10)
	high := TargetFromDifficulty(1000)
	if high.Cmp(low) >= 0 {
		t.Fatal("target must shrink as difficulty grows")
	}
}

func TestTargetFromDifficultyZeroTreatedAsOne(t *testing.T) {
	if TargetFromDifficulty(0).Cmp(TargetFromDifficulty(1)) != 0 {
		t.Fatal("difficulty 0 should be treated the same as difficulty 1")
	}
}
