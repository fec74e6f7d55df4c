// Package bench drives instrumented encrypt/decrypt round trips against an
// ABE capability and collects one sample per payload size.
package bench

import (
	"fmt"

	"github.com/signalnine/abebench/internal/abe"
)

// Handles passed through the capability are opaque to the harness.
type (
	PublicParams any
	MasterSecret any
	Key          any
	Ciphertext   any
)

// Value is an encryptable element. Equality is bit-for-bit on Bytes.
type Value interface {
	Bytes() []byte
}

// Capability is the external ABE primitive. Every call may fail.
type Capability interface {
	Setup() (PublicParams, MasterSecret, error)
	KeyGen(pp PublicParams, msk MasterSecret, attrs []string) (Key, error)
	Encrypt(pp PublicParams, v Value, policy string) (Ciphertext, error)
	Decrypt(pp PublicParams, ct Ciphertext, key Key) (Value, error)
	RandomValue(pp PublicParams) (Value, error)
}

// ABE adapts the BN254 CP-ABE scheme to Capability.
type ABE struct {
	scheme *abe.Scheme
}

func NewABE(s *abe.Scheme) *ABE {
	return &ABE{scheme: s}
}

func (a *ABE) Setup() (PublicParams, MasterSecret, error) {
	return a.scheme.Setup()
}

func (a *ABE) KeyGen(pp PublicParams, msk MasterSecret, attrs []string) (Key, error) {
	pk, err := publicKey(pp)
	if err != nil {
		return nil, err
	}
	mk, ok := msk.(*abe.MasterKey)
	if !ok {
		return nil, fmt.Errorf("master secret: unexpected type %T", msk)
	}
	return a.scheme.KeyGen(pk, mk, attrs)
}

func (a *ABE) Encrypt(pp PublicParams, v Value, policy string) (Ciphertext, error) {
	pk, err := publicKey(pp)
	if err != nil {
		return nil, err
	}
	msg, ok := v.(*abe.Message)
	if !ok {
		return nil, fmt.Errorf("value: unexpected type %T", v)
	}
	return a.scheme.Encrypt(pk, msg, policy)
}

func (a *ABE) Decrypt(pp PublicParams, ct Ciphertext, key Key) (Value, error) {
	pk, err := publicKey(pp)
	if err != nil {
		return nil, err
	}
	c, ok := ct.(*abe.Ciphertext)
	if !ok {
		return nil, fmt.Errorf("ciphertext: unexpected type %T", ct)
	}
	k, ok := key.(*abe.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key: unexpected type %T", key)
	}
	msg, err := a.scheme.Decrypt(pk, c, k)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (a *ABE) RandomValue(pp PublicParams) (Value, error) {
	pk, err := publicKey(pp)
	if err != nil {
		return nil, err
	}
	msg, err := a.scheme.RandomMessage(pk)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func publicKey(pp PublicParams) (*abe.PublicKey, error) {
	pk, ok := pp.(*abe.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public params: unexpected type %T", pp)
	}
	return pk, nil
}
