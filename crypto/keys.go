// Package crypto is a thin wrapper around key handling and signature
// recovery — out of the core's scope per spec §1 ("keypair loading...are
// thin wrappers and are mentioned only through the contract they expose").
package crypto

import (
	"crypto/ecdsa"
	stdrand "crypto/rand"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"digichain/core/types"
)

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), stdrand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return ethcrypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the fixed-width hex Address from the public key (spec
// §3: "Fixed-width 20-byte identifier, hex-rendered").
func (k *PublicKey) Address() types.Address {
	return types.BytesToAddress(ethcrypto.PubkeyToAddress(*k.PublicKey).Bytes())
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := ethcrypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Sign produces a recoverable ECDSA signature over message (already a
// 32-byte digest).
func Sign(message [32]byte, key *PrivateKey) (types.Signature, error) {
	sig, err := ethcrypto.Sign(message[:], key.PrivateKey)
	if err != nil {
		return types.Signature{}, err
	}
	var out types.Signature
	copy(out[:], sig)
	return out, nil
}

// Recover recovers the signing address from a recoverable signature over
// message.
func Recover(message [32]byte, sig types.Signature) (types.Address, error) {
	pub, err := ethcrypto.SigToPub(message[:], sig.Bytes())
	if err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(ethcrypto.PubkeyToAddress(*pub).Bytes()), nil
}

// Verify is the spec's stubbed verify(sig, message, expected_addr) -> bool
// (§9: "signature recovery is commented out in the source... stub verify
// and, in test mode, accept any signature"). TestMode, when true, accepts
// every non-empty signature without recovery, matching the original's
// commented-out check; a production deployment should flip TestMode off
// so Verify performs real ECDSA recovery.
var TestMode = true

func Verify(sig types.Signature, message [32]byte, expected types.Address) bool {
	if TestMode {
		return !sig.IsZero()
	}
	recovered, err := Recover(message, sig)
	if err != nil {
		return false
	}
	return recovered.Equal(expected)
}
