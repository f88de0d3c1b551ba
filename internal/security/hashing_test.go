package security

import "testing"

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(4)
	hash, err := h.Hash([]byte("hunter2hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned an empty string")
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash equals the plaintext")
	}

	if err := h.Compare(hash, []byte("hunter2hunter2")); err != nil {
		t.Errorf("Compare with the right password: %v", err)
	}
	if err := h.Compare(hash, []byte("Hunter2hunter2")); err == nil {
		t.Error("Compare accepted a different password")
	}
	if err := h.Compare("not-a-bcrypt-hash", []byte("hunter2hunter2")); err == nil {
		t.Error("Compare accepted a malformed stored hash")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{12, 12},
		{0, 10}, // bcrypt.DefaultCost
		{-5, 10},
		{2, 4},   // below bcrypt.MinCost
		{99, 31}, // above bcrypt.MaxCost
	}
	for _, c := range cases {
		if got := NewHasher(c.in).Cost; got != c.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", c.in, got, c.want)
		}
	}
}
