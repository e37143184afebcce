package crypt

import (
	"bytes"
	"testing"
)

func TestCipher_roundTrip(t *testing.T) {
	c, err := New("test-document-key")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	tests := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("%PDF-1.4 binary\x00\x01\x02 content"),
		bytes.Repeat([]byte{0xff, 0x00}, 1<<16),
	}
	for _, plaintext := range tests {
		ciphertext, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}
		if bytes.Contains(ciphertext, plaintext) && len(plaintext) > 0 {
			t.Errorf("ciphertext contains plaintext")
		}
		got, err := c.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("round trip failed: got %q; want %q", got, plaintext)
		}
	}
}

func TestCipher_distinctNonces(t *testing.T) {
	c, _ := New("test-document-key")
	ct1, _ := c.Encrypt([]byte("same input"))
	ct2, _ := c.Encrypt([]byte("same input"))
	if bytes.Equal(ct1, ct2) {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestCipher_wrongKey(t *testing.T) {
	c1, _ := New("key-one")
	c2, _ := New("key-two")

	ciphertext, err := c1.Encrypt([]byte("secret document"))
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	if _, err = c2.Decrypt(ciphertext); err != ErrDecrypt {
		t.Errorf("Decrypt() with wrong key: err = %v; want ErrDecrypt", err)
	}
}

func TestCipher_corruptedData(t *testing.T) {
	c, _ := New("test-document-key")

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"too short", []byte("short")},
		{"garbage", bytes.Repeat([]byte("x"), 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decrypt(tt.data); err != ErrDecrypt {
				t.Errorf("Decrypt() err = %v; want ErrDecrypt", err)
			}
		})
	}

	// flip one bit of a valid ciphertext
	ciphertext, _ := c.Encrypt([]byte("valid content"))
	ciphertext[len(ciphertext)-1] ^= 0x01
	if _, err := c.Decrypt(ciphertext); err != ErrDecrypt {
		t.Errorf("Decrypt() of tampered data: err = %v; want ErrDecrypt", err)
	}
}

func TestNew_emptySecret(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}
