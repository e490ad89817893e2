package allocs

type point struct {
	x, y int
}

type node struct {
	next *node
	v    int
}

var sink *node

func removable() {
	p := &point{} // want "allocation is never observed and can be eliminated"
	p.x = 1
	p.y = 2
}

func collapse() {
	a := &node{} // want "allocation is never observed and can be eliminated"
	b := &node{} // want "allocation is never observed and can be eliminated"
	a.next = b
}

func returned() *point {
	p := &point{}
	p.x = 1
	return p
}

func published() {
	a := &node{} // want "allocation is reachable from long-lived memory and should be pretenured"
	b := &node{} // want "allocation is reachable from long-lived memory and should be pretenured"
	a.next = b
	sink = a
}

func attach(dst *node) {
	n := &node{}
	dst.next = n
}

func merged(c bool) *node {
	var n *node
	if c {
		n = &node{}
	} else {
		n = &node{}
	}
	return n
}

func nested(n, m int) {
	var p *node
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			q := &node{} // want "allocation is reachable from long-lived memory and should be pretenured"
			q.next = p
			p = q
		}
	}
	sink = p
}

func indexed(i int) {
	a := new([4]*node) // want "allocation is never observed and can be eliminated"
	a[i] = &node{}     // want "allocation is never observed and can be eliminated"
}
