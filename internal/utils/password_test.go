package utils

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestRandStringLengthAndAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		s := RandStringBytesMaskImpr(8)
		if len(s) != 8 {
			t.Fatalf("len(%q) = %d", s, len(s))
		}
		for _, r := range s {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				t.Fatalf("unexpected rune %q in %q", r, s)
			}
		}
		seen[s] = true
	}
	if len(seen) < 45 {
		t.Fatalf("too many collisions: %d unique of 50", len(seen))
	}
}
