package abe

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrEmptyPolicy = errors.New("empty policy")

// Node is a threshold gate or an attribute leaf of an access tree.
// An "and" gate over n children has threshold n, an "or" gate threshold 1.
type Node struct {
	Attribute string
	Threshold int
	Children  []*Node

	leaf int
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Leaves returns the number of attribute leaves under n.
func (n *Node) Leaves() int {
	if n.IsLeaf() {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}
	return total
}

// Satisfied reports whether the attribute set satisfies the tree.
func (n *Node) Satisfied(attrs map[string]bool) bool {
	if n.IsLeaf() {
		return attrs[n.Attribute]
	}
	count := 0
	for _, c := range n.Children {
		if c.Satisfied(attrs) {
			count++
		}
	}
	return count >= n.Threshold
}

func (n *Node) String() string {
	if n.IsLeaf() {
		return n.Attribute
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	switch n.Threshold {
	case len(n.Children):
		return "(" + strings.Join(parts, " and ") + ")"
	case 1:
		return "(" + strings.Join(parts, " or ") + ")"
	default:
		return fmt.Sprintf("%d of (%s)", n.Threshold, strings.Join(parts, ", "))
	}
}

// Gate returns a human label for the node kind.
func (n *Node) Gate() string {
	switch {
	case n.IsLeaf():
		return n.Attribute
	case n.Threshold == len(n.Children):
		return fmt.Sprintf("AND (%d/%d)", n.Threshold, len(n.Children))
	case n.Threshold == 1:
		return fmt.Sprintf("OR (1/%d)", len(n.Children))
	default:
		return fmt.Sprintf("THRESHOLD (%d/%d)", n.Threshold, len(n.Children))
	}
}

// ParsePolicy parses a boolean policy such as
// "((ONE and THREE) and (TWO OR FOUR))". Operators are case-insensitive,
// "and" binds tighter than "or", and chains of the same operator collapse
// into one gate.
func ParsePolicy(s string) (*Node, error) {
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return nil, ErrEmptyPolicy
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.tokens[p.pos], p.pos)
	}
	next := 0
	indexLeaves(root, &next)
	return root, nil
}

func indexLeaves(n *Node, next *int) {
	if n.IsLeaf() {
		n.leaf = *next
		*next++
		return
	}
	for _, c := range n.Children {
		indexLeaves(c, next)
	}
}

func tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) parseOr() (*Node, error) {
	return p.parseChain("or", p.parseAnd, func(n int) int { return 1 })
}

func (p *parser) parseAnd() (*Node, error) {
	return p.parseChain("and", p.parseOperand, func(n int) int { return n })
}

func (p *parser) parseChain(op string, operand func() (*Node, error), threshold func(int) int) (*Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for strings.EqualFold(p.peek(), op) {
		p.pos++
		next, err := operand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &Node{Threshold: threshold(len(children)), Children: children}, nil
}

func (p *parser) parseOperand() (*Node, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of policy")
	case tok == "(":
		p.pos++
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		p.pos++
		return n, nil
	case tok == ")":
		return nil, fmt.Errorf("unexpected ')' at position %d", p.pos)
	case strings.EqualFold(tok, "and") || strings.EqualFold(tok, "or"):
		return nil, fmt.Errorf("operator %q without left operand at position %d", tok, p.pos)
	default:
		p.pos++
		return &Node{Attribute: tok}, nil
	}
}
