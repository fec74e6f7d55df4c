package abe

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// shareSecret splits secret down the tree. Each gate with threshold k picks
// a random polynomial of degree k-1 with q(0) = secret and hands child i the
// value q(i); leaves record their share by leaf index.
func shareSecret(n *Node, secret fr.Element, shares []fr.Element) error {
	if n.IsLeaf() {
		shares[n.leaf] = secret
		return nil
	}
	coeffs := make([]fr.Element, n.Threshold)
	coeffs[0] = secret
	for i := 1; i < len(coeffs); i++ {
		c, err := randomScalar()
		if err != nil {
			return err
		}
		coeffs[i] = c
	}
	for i, child := range n.Children {
		var x fr.Element
		x.SetUint64(uint64(i + 1))
		if err := shareSecret(child, evalPoly(coeffs, &x), shares); err != nil {
			return err
		}
	}
	return nil
}

func evalPoly(coeffs []fr.Element, x *fr.Element) fr.Element {
	var acc fr.Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(&acc, x)
		acc.Add(&acc, &coeffs[i])
	}
	return acc
}

// lagrangeAtZero is the Lagrange basis coefficient for x_i evaluated at 0
// over the index set.
func lagrangeAtZero(i int, set []int) fr.Element {
	var num, den, xi fr.Element
	num.SetOne()
	den.SetOne()
	xi.SetUint64(uint64(i))
	for _, j := range set {
		if j == i {
			continue
		}
		var xj, diff fr.Element
		xj.SetUint64(uint64(j))
		num.Mul(&num, &xj)
		diff.Sub(&xj, &xi)
		den.Mul(&den, &diff)
	}
	den.Inverse(&den)
	num.Mul(&num, &den)
	return num
}
