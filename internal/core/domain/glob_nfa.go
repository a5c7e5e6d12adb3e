package domain

import "strings"

type charClass uint8

const (
	classLiteral charClass = iota
	classNotSlash
	classAny
)

type globEdge struct {
	class charClass
	lit   byte
	to    int
}

func (e globEdge) accepts(c byte) bool {
	switch e.class {
	case classLiteral:
		return e.lit == c
	case classNotSlash:
		return c != '/'
	default:
		return true
	}
}

// compatible reports whether a single character exists that both edges accept.
func compatible(x, y globEdge) bool {
	switch {
	case x.class == classLiteral && y.class == classLiteral:
		return x.lit == y.lit
	case x.class == classLiteral:
		return y.class == classAny || x.lit != '/'
	case y.class == classLiteral:
		return x.class == classAny || y.lit != '/'
	default:
		return true
	}
}

type globState struct {
	edges []globEdge
	eps   []int
}

// globNFA is a nondeterministic automaton over path bytes with a single accepting state.
type globNFA struct {
	states []globState
	accept int
}

type nfaBuilder struct {
	states []globState
}

func (b *nfaBuilder) add() int {
	b.states = append(b.states, globState{})
	return len(b.states) - 1
}

func (b *nfaBuilder) edge(from int, class charClass, lit byte, to int) {
	b.states[from].edges = append(b.states[from].edges, globEdge{class: class, lit: lit, to: to})
}

func (b *nfaBuilder) eps(from, to int) {
	b.states[from].eps = append(b.states[from].eps, to)
}

func (b *nfaBuilder) literal(from int, c byte) int {
	to := b.add()
	b.edge(from, classLiteral, c, to)
	return to
}

// compileGlob builds the automaton for a normalized, validated pattern.
func compileGlob(pattern string) *globNFA {
	b := &nfaBuilder{}
	cur := b.add()
	segs := strings.Split(pattern, "/")
	needSep := false

	for i, seg := range segs {
		last := i == len(segs)-1
		if seg == "**" {
			switch {
			case i == 0 && last:
				b.edge(cur, classAny, 0, cur)
			case last:
				// "(/.*)?" so the directory itself matches too.
				next, loop := b.add(), b.add()
				b.eps(cur, next)
				b.edge(cur, classLiteral, '/', loop)
				b.edge(loop, classAny, 0, loop)
				b.eps(loop, next)
				cur = next
			default:
				// "(.*/)?" for zero or more leading directories.
				if needSep {
					cur = b.literal(cur, '/')
				}
				next, loop := b.add(), b.add()
				b.eps(cur, next)
				b.edge(cur, classAny, 0, loop)
				b.edge(loop, classAny, 0, loop)
				b.edge(loop, classLiteral, '/', next)
				cur = next
				needSep = false
				continue
			}
			needSep = true
			continue
		}

		if needSep {
			cur = b.literal(cur, '/')
		}
		for j := 0; j < len(seg); j++ {
			if seg[j] == '*' {
				b.edge(cur, classNotSlash, 0, cur)
				continue
			}
			cur = b.literal(cur, seg[j])
		}
		needSep = true
	}

	return &globNFA{states: b.states, accept: cur}
}

func (n *globNFA) closure(set []bool) {
	stack := make([]int, 0, len(set))
	for s, on := range set {
		if on {
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range n.states[s].eps {
			if !set[t] {
				set[t] = true
				stack = append(stack, t)
			}
		}
	}
}

func (n *globNFA) match(path string) bool {
	cur := make([]bool, len(n.states))
	cur[0] = true
	n.closure(cur)

	next := make([]bool, len(n.states))
	for i := 0; i < len(path); i++ {
		c := path[i]
		clear(next)
		alive := false
		for s, on := range cur {
			if !on {
				continue
			}
			for _, e := range n.states[s].edges {
				if e.accepts(c) {
					next[e.to] = true
					alive = true
				}
			}
		}
		if !alive {
			return false
		}
		n.closure(next)
		cur, next = next, cur
	}
	return cur[n.accept]
}

// intersects explores the product automaton for a pair of accepting states.
func (n *globNFA) intersects(o *globNFA) bool {
	width := len(o.states)
	seen := make([]bool, len(n.states)*width)
	queue := []int{0}
	seen[0] = true

	push := func(i, j int) {
		k := i*width + j
		if !seen[k] {
			seen[k] = true
			queue = append(queue, k)
		}
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		i, j := k/width, k%width
		if i == n.accept && j == o.accept {
			return true
		}
		for _, t := range n.states[i].eps {
			push(t, j)
		}
		for _, t := range o.states[j].eps {
			push(i, t)
		}
		for _, x := range n.states[i].edges {
			for _, y := range o.states[j].edges {
				if compatible(x, y) {
					push(x.to, y.to)
				}
			}
		}
	}
	return false
}
