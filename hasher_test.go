package splitauth_test

import (
	"testing"

	sa "github.com/tabsplit/splitauth"
)

func TestHasherRoundTrip(t *testing.T) {
	var h sa.Hasher

	digest, err := h.Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if digest == "longenough1" {
		t.Fatal("Digest equals the plaintext")
	}
	if !h.Verify("longenough1", digest) {
		t.Error("Verify rejected the original plaintext")
	}
	if h.Verify("longenough2", digest) {
		t.Error("Verify accepted a different plaintext")
	}
	if h.Verify("longenough1", "") {
		t.Error("Verify accepted an empty digest")
	}
}

func TestHashIsSalted(t *testing.T) {
	var h sa.Hasher

	a, err := h.Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("longenough1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Error("Two hashes of the same plaintext are identical; digest is unsalted")
	}
}
