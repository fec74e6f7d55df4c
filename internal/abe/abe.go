// Package abe implements ciphertext-policy attribute-based encryption over
// the BN254 pairing. Ciphertext components live in G1, key components in
// G2, and messages are elements of GT.
package abe

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var ErrPolicyNotSatisfied = errors.New("key attributes do not satisfy policy")

const defaultDST = "ABEBENCH-CPABE-BN254-ATTR"

type PublicKey struct {
	G1       bn254.G1Affine
	G2       bn254.G2Affine
	H        bn254.G1Affine // g1^beta
	EggAlpha bn254.GT       // e(g1, g2)^alpha
}

type MasterKey struct {
	Beta    fr.Element
	G2Alpha bn254.G2Affine
}

type PrivateKey struct {
	Attributes []string

	d          bn254.G2Affine
	components map[string]keyComponent
}

type keyComponent struct {
	d      bn254.G2Affine
	dPrime bn254.G1Affine
}

type Ciphertext struct {
	Policy *Node

	cTilde bn254.GT
	c      bn254.G1Affine
	leaves []leafComponent
}

type leafComponent struct {
	c      bn254.G1Affine
	cPrime bn254.G2Affine
}

// Message is an encryptable GT element, standing in for a symmetric
// content key in a hybrid construction.
type Message struct {
	gt bn254.GT
}

// Bytes returns the canonical encoding of the element.
func (m *Message) Bytes() []byte {
	b := m.gt.Bytes()
	return b[:]
}

func (m *Message) Equal(other *Message) bool {
	return m.gt.Equal(&other.gt)
}

type Scheme struct {
	dst []byte
}

func New() *Scheme {
	return &Scheme{dst: []byte(defaultDST)}
}

// Setup generates public parameters and the master secret.
func (s *Scheme) Setup() (*PublicKey, *MasterKey, error) {
	_, _, g1, g2 := bn254.Generators()

	alpha, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}
	beta, err := randomScalar()
	if err != nil {
		return nil, nil, err
	}

	pk := &PublicKey{G1: g1, G2: g2}
	pk.H = g1Mul(&g1, &beta)
	g1Alpha := g1Mul(&g1, &alpha)
	pk.EggAlpha, err = bn254.Pair([]bn254.G1Affine{g1Alpha}, []bn254.G2Affine{g2})
	if err != nil {
		return nil, nil, fmt.Errorf("computing e(g1, g2)^alpha: %w", err)
	}

	msk := &MasterKey{Beta: beta, G2Alpha: g2Mul(&g2, &alpha)}
	return pk, msk, nil
}

// KeyGen issues a private key for the given attribute set.
func (s *Scheme) KeyGen(pk *PublicKey, msk *MasterKey, attrs []string) (*PrivateKey, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("keygen: no attributes")
	}
	r, err := randomScalar()
	if err != nil {
		return nil, err
	}
	g2r := g2Mul(&pk.G2, &r)

	var betaInv fr.Element
	betaInv.Inverse(&msk.Beta)
	sum := g2Add(&msk.G2Alpha, &g2r)

	key := &PrivateKey{
		Attributes: append([]string(nil), attrs...),
		d:          g2Mul(&sum, &betaInv),
		components: make(map[string]keyComponent, len(attrs)),
	}
	for _, attr := range attrs {
		h, err := s.hashAttribute(attr)
		if err != nil {
			return nil, err
		}
		rj, err := randomScalar()
		if err != nil {
			return nil, err
		}
		hrj := g2Mul(&h, &rj)
		key.components[attr] = keyComponent{
			d:      g2Add(&g2r, &hrj),
			dPrime: g1Mul(&pk.G1, &rj),
		}
	}
	return key, nil
}

// Encrypt encrypts msg under the boolean policy.
func (s *Scheme) Encrypt(pk *PublicKey, msg *Message, policy string) (*Ciphertext, error) {
	tree, err := ParsePolicy(policy)
	if err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	secret, err := randomScalar()
	if err != nil {
		return nil, err
	}

	shares := make([]fr.Element, tree.Leaves())
	if err := shareSecret(tree, secret, shares); err != nil {
		return nil, err
	}

	ct := &Ciphertext{
		Policy: tree,
		c:      g1Mul(&pk.H, &secret),
		leaves: make([]leafComponent, len(shares)),
	}
	var blind bn254.GT
	blind.Exp(pk.EggAlpha, scalarBig(&secret))
	ct.cTilde.Mul(&msg.gt, &blind)

	if err := s.fillLeaves(pk, tree, shares, ct.leaves); err != nil {
		return nil, err
	}
	return ct, nil
}

func (s *Scheme) fillLeaves(pk *PublicKey, n *Node, shares []fr.Element, out []leafComponent) error {
	if !n.IsLeaf() {
		for _, c := range n.Children {
			if err := s.fillLeaves(pk, c, shares, out); err != nil {
				return err
			}
		}
		return nil
	}
	h, err := s.hashAttribute(n.Attribute)
	if err != nil {
		return err
	}
	q := &shares[n.leaf]
	out[n.leaf] = leafComponent{
		c:      g1Mul(&pk.G1, q),
		cPrime: g2Mul(&h, q),
	}
	return nil
}

// Decrypt recovers the message if the key satisfies the ciphertext policy.
func (s *Scheme) Decrypt(pk *PublicKey, ct *Ciphertext, key *PrivateKey) (*Message, error) {
	a, ok, err := s.decryptNode(ct.Policy, ct, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPolicyNotSatisfied
	}

	var negC bn254.G1Affine
	negC.Neg(&ct.c)
	inv, err := bn254.Pair([]bn254.G1Affine{negC}, []bn254.G2Affine{key.d})
	if err != nil {
		return nil, fmt.Errorf("pairing root: %w", err)
	}

	msg := &Message{}
	msg.gt.Mul(&ct.cTilde, &a)
	msg.gt.Mul(&msg.gt, &inv)
	return msg, nil
}

// decryptNode returns e(g1, g2)^(r*q_n(0)) when the subtree is satisfied.
func (s *Scheme) decryptNode(n *Node, ct *Ciphertext, key *PrivateKey) (bn254.GT, bool, error) {
	var out bn254.GT
	if n.IsLeaf() {
		comp, ok := key.components[n.Attribute]
		if !ok {
			return out, false, nil
		}
		leaf := &ct.leaves[n.leaf]
		var negDPrime bn254.G1Affine
		negDPrime.Neg(&comp.dPrime)
		v, err := bn254.Pair(
			[]bn254.G1Affine{leaf.c, negDPrime},
			[]bn254.G2Affine{comp.d, leaf.cPrime},
		)
		if err != nil {
			return out, false, fmt.Errorf("pairing leaf %s: %w", n.Attribute, err)
		}
		return v, true, nil
	}

	var (
		indices []int
		values  []bn254.GT
	)
	for i, c := range n.Children {
		v, ok, err := s.decryptNode(c, ct, key)
		if err != nil {
			return out, false, err
		}
		if !ok {
			continue
		}
		indices = append(indices, i+1)
		values = append(values, v)
		if len(indices) == n.Threshold {
			break
		}
	}
	if len(indices) < n.Threshold {
		return out, false, nil
	}

	out.SetOne()
	for k, idx := range indices {
		coeff := lagrangeAtZero(idx, indices)
		var term bn254.GT
		term.Exp(values[k], scalarBig(&coeff))
		out.Mul(&out, &term)
	}
	return out, true, nil
}

// RandomMessage draws a uniformly random element of GT.
func (s *Scheme) RandomMessage(pk *PublicKey) (*Message, error) {
	t, err := randomScalar()
	if err != nil {
		return nil, err
	}
	g1t := g1Mul(&pk.G1, &t)
	gt, err := bn254.Pair([]bn254.G1Affine{g1t}, []bn254.G2Affine{pk.G2})
	if err != nil {
		return nil, fmt.Errorf("pairing random element: %w", err)
	}
	return &Message{gt: gt}, nil
}

func (s *Scheme) hashAttribute(attr string) (bn254.G2Affine, error) {
	h, err := bn254.HashToG2([]byte(attr), s.dst)
	if err != nil {
		return h, fmt.Errorf("hashing attribute %s: %w", attr, err)
	}
	return h, nil
}

func randomScalar() (fr.Element, error) {
	var x fr.Element
	if _, err := x.SetRandom(); err != nil {
		return x, fmt.Errorf("sampling scalar: %w", err)
	}
	return x, nil
}

func scalarBig(x *fr.Element) *big.Int {
	var b big.Int
	x.BigInt(&b)
	return &b
}

func g1Mul(p *bn254.G1Affine, k *fr.Element) bn254.G1Affine {
	var out bn254.G1Affine
	out.ScalarMultiplication(p, scalarBig(k))
	return out
}

func g2Mul(p *bn254.G2Affine, k *fr.Element) bn254.G2Affine {
	var out bn254.G2Affine
	out.ScalarMultiplication(p, scalarBig(k))
	return out
}

func g2Add(a, b *bn254.G2Affine) bn254.G2Affine {
	var j bn254.G2Jac
	j.FromAffine(a)
	j.AddMixed(b)
	var out bn254.G2Affine
	out.FromJacobian(&j)
	return out
}
