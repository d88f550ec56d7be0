package crypto

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 20)
	addr := NewAddress(AccountPrefix, raw)

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
	if decoded.Prefix() != AccountPrefix {
		t.Fatalf("unexpected prefix %q", decoded.Prefix())
	}
}

func TestAddressEqualDistinguishesPrefix(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, 20)
	account := NewAddress(AccountPrefix, raw)
	vault := NewAddress(VaultPrefix, raw)

	if account.Equal(vault) {
		t.Fatal("addresses with different prefixes must not compare equal")
	}
	if account.IsZero() {
		t.Fatal("non-zero address reported as zero")
	}
	if !NewAddress(AccountPrefix, make([]byte, 20)).IsZero() {
		t.Fatal("zero address not reported as zero")
	}
}

func TestSignRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := crypto.Keccak256([]byte("payload"))

	sig, err := key.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("unexpected signature length %d", len(sig))
	}

	recovered, err := crypto.SigToPub(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !bytes.Equal(crypto.CompressPubkey(recovered), key.PubKey().CompressedBytes()) {
		t.Fatal("recovered key does not match signer")
	}

	if _, err := key.Sign([]byte("short")); err == nil {
		t.Fatal("expected error for non-32-byte digest")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "attester.json")

	if err := SaveToKeystore(path, key, "correct horse"); err != nil {
		t.Fatalf("save keystore: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "correct horse")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatal("loaded key differs from saved key")
	}

	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}
