package router

// Node is one (handler, format) participant in a chain. Nodes are
// reference-identified by the pair: two nodes from different handlers
// with the same MIME are distinct graph vertices.
type Node struct {
	Handler Handler
	Format  Format
}

// sameFormat reports whether n and o declare the exact same Format value,
// used for the chain's cycle-prevention invariant ("within any single
// chain, a given Format value appears at most once").
func (n Node) sameFormat(o Node) bool {
	return n.Format == o.Format
}

// Chain is an ordered sequence of nodes describing a multi-step
// conversion. Chain[0] is always the caller-selected input option;
// Chain[len(Chain)-1] is a target-MIME-compatible node.
type Chain []Node

// Clone returns a shallow copy of the chain, safe to append to without
// aliasing the original's backing array.
func (c Chain) Clone() Chain {
	out := make(Chain, len(c))
	copy(out, c)
	return out
}

// Contains reports whether format already appears anywhere in the chain,
// used to prevent revisiting the same Format value within one chain.
func (c Chain) Contains(f Format) bool {
	for _, n := range c {
		if n.Format == f {
			return true
		}
	}
	return false
}

// CommonPrefixLen returns the length of the shared prefix between c and
// other, comparing nodes by (handler name, format).
func (c Chain) CommonPrefixLen(other Chain) int {
	n := len(c)
	if len(other) < n {
		n = len(other)
	}
	i := 0
	for ; i < n; i++ {
		if c[i].Handler.Name() != other[i].Handler.Name() || c[i].Format != other[i].Format {
			break
		}
	}
	return i
}
