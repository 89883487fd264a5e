package randomx

import "testing"

func TestNewCacheIsDeterministic(t *testing.T) {
	seed := []byte("salvium randomx cache test seed")
	a := NewCache(seed)
	b := NewCache(seed)

	if string(a.Row(0)) != string(b.Row(0)) || string(a.Row(12345)) != string(b.Row(12345)) {
		t.Fatal("NewCache produced different rows for the same seed")
	}
}

func TestNewCacheDiffersAcrossSeeds(t *testing.T) {
	a := NewCache([]byte("seed one"))
	b := NewCache([]byte("seed two"))

	if string(a.Row(0)) == string(b.Row(0)) {
		t.Fatal("different seeds produced the same cache row")
	}
}

func TestCacheRowWrapsIndex(t *testing.T) {
	c := NewCache([]byte("wrap test seed"))
	if string(c.Row(0)) != string(c.Row(CacheRows)) {
		t.Fatal("Row did not wrap at CacheRows")
	}
}
