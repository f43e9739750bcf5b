package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Verify("correct horse", hash) {
		t.Error("Verify rejected the right password")
	}
	if h.Verify("wrong horse", hash) {
		t.Error("Verify accepted a wrong password")
	}
	if h.Verify("correct horse", "not-a-bcrypt-hash") {
		t.Error("Verify accepted a malformed hash")
	}
}

func TestNewHasherCost(t *testing.T) {
	if got := NewHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("NewHasher(0).Cost = %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(12).Cost; got != 12 {
		t.Errorf("NewHasher(12).Cost = %d", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"seven chars", "1234567", true},
		{"eight chars", "12345678", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 73), true},
		{"four multibyte chars", "éééé", true},
		{"seven multibyte chars", "ééééééé", true},
		{"eight multibyte chars", "éééééééé", false},
		{"multibyte over byte limit", strings.Repeat("é", 37), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
