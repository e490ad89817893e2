/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ssa

import (
    `context`
    `sync/atomic`

    `github.com/cloudwego/tenure/ir`
    `github.com/nikandfor/tlog`
    `github.com/oleiade/lane`
    `golang.org/x/exp/slices`
    `gonum.org/v1/gonum/graph/simple`
)

// Pretenuring promotes every allocation that is stored, directly or through
// phis, into an old allocation, so that no young object is left hanging off
// an old one without a write barrier.
//
// The store graph has an edge base -> value for every store of an
// allocation-or-phi value into an allocation-or-phi base, and an edge
// phi -> input for every phi input that could be an allocation. A phi is
// tracked when one of its inputs is an allocation or another tracked phi;
// untracked phis are never recorded as values.
type Pretenuring struct{}

type _StoreGraph struct {
    g    *ir.Graph
    d    *simple.DirectedGraph
    phis map[ir.OpIndex]struct{}
}

func newStoreGraph(g *ir.Graph, phis map[ir.OpIndex]struct{}) *_StoreGraph {
    return &_StoreGraph {
        g    : g,
        d    : simple.NewDirectedGraph(),
        phis : phis,
    }
}

func (self *_StoreGraph) tracked(i ir.OpIndex) bool {
    _, ok := self.phis[i]
    return ok
}

// reaches reports whether any input of phi is an allocation or a phi
// already known to reach one.
func (self *_StoreGraph) reaches(phi *ir.Phi) bool {
    for _, in := range phi.Args {
        switch self.g.Get(in).(type) {
            case *ir.Allocate : return true
            case *ir.Phi      : if self.tracked(in) { return true }
        }
    }
    return false
}

// track finds every phi that reaches an allocation. Loop back edges make a
// phi depend on phis created after it, so iterate until nothing changes.
func (self *_StoreGraph) track() {
    done := false

    /* iterate until no more phis can be tracked */
    for !done {
        done = true
        self.g.ForEach(func(i ir.OpIndex, op ir.Operation) {
            if p, ok := op.(*ir.Phi); ok && !self.tracked(i) && self.reaches(p) {
                self.phis[i] = struct{}{}
                done = false
            }
        })
    }
}

func (self *_StoreGraph) node(i ir.OpIndex) bool {
    return self.d.Node(int64(i)) != nil
}

func (self *_StoreGraph) couldBeAllocate(i ir.OpIndex) bool {
    switch self.g.Get(i).(type) {
        case *ir.Allocate : return true
        case *ir.Phi      : return true
        default           : return false
    }
}

// depend records that the old-ness of from flows into to.
func (self *_StoreGraph) depend(from ir.OpIndex, to ir.OpIndex) {
    if !self.node(from) {
        self.d.AddNode(simple.Node(from))
    }
    if from != to {
        self.d.SetEdge(self.d.NewEdge(simple.Node(from), simple.Node(to)))
    }
}

func (self *_StoreGraph) addStore(i ir.OpIndex, st *ir.Store) {
    if !st.Valid() {
        panic(ir.EMalformedStore("pretenuring propagation", i, st))
    }

    /* both sides must be able to hold an allocation */
    base, value := st.Base(), st.Value()
    if !self.couldBeAllocate(base) || !self.couldBeAllocate(value) {
        return
    }

    /* old values and phis without allocation inputs propagate nothing */
    switch v := self.g.Get(value).(type) {
        case *ir.Allocate : if v.Type == ir.Old   { return }
        case *ir.Phi      : if !self.tracked(value) { return }
    }

    /* value is stored into base */
    self.depend(base, value)
}

func (self *_StoreGraph) addPhi(i ir.OpIndex, phi *ir.Phi, buf *[]ir.OpIndex) {
    *buf = (*buf)[:0]

    /* only keep the inputs that could be allocations */
    for _, in := range phi.Args {
        switch self.g.Get(in).(type) {
            case *ir.Allocate : *buf = append(*buf, in)
            case *ir.Phi      : if self.tracked(in) { *buf = append(*buf, in) }
        }
    }

    /* phis act as if they stored all of their inputs */
    for _, in := range *buf {
        self.depend(i, in)
    }
}

// contained returns what is stored into i, in ascending order.
func (self *_StoreGraph) contained(i ir.OpIndex, buf *[]ir.OpIndex) []ir.OpIndex {
    *buf = (*buf)[:0]
    if !self.node(i) {
        return *buf
    }
    for it := self.d.From(int64(i)); it.Next(); {
        *buf = append(*buf, ir.OpIndex(it.Node().ID()))
    }
    slices.Sort(*buf)
    return *buf
}

func (Pretenuring) Apply(ctx context.Context, u *Unit) {
    g := u.Graph
    na, np := 0, 0
    tr := tlog.SpawnFromContext(ctx, "pretenuring propagation")
    defer func() { tr.Finish("pretenured_allocs", na, "pretenured_phis", np) }()

    /* scratch space */
    buf   := u.Zone.Indices()
    roots := u.Zone.Indices()
    phis  := u.Zone.Set()
    sg    := newStoreGraph(g, u.Zone.Set())

    /* Phase 1: find the phis that could hold an allocation */
    sg.track()

    /* Phase 2: build the store graph and collect the old allocations */
    g.ForEach(func(i ir.OpIndex, op ir.Operation) {
        switch p := op.(type) {
            case *ir.Store    : sg.addStore(i, p)
            case *ir.Phi      : sg.addPhi(i, p, buf)
            case *ir.Allocate : if p.Type == ir.Old { *roots = append(*roots, i) }
        }
    })

    /* nothing is old, nothing to propagate */
    if len(*roots) == 0 {
        return
    }

    /* Phase 3: everything stored into an old allocation becomes old */
    for _, r := range *roots {
        q := lane.NewQueue()
        for _, v := range sg.contained(r, buf) {
            q.Enqueue(v)
        }

        /* propagate until fixed point */
        for !q.Empty() {
            i := q.Dequeue().(ir.OpIndex)

            /* mark the operation as old */
            switch p := g.Get(i).(type) {
                default: {
                    panic(ir.EInvariant("pretenuring propagation", i, "store graph refers to " + p.String()))
                }

                /* allocations carry the mark themselves */
                case *ir.Allocate: {
                    if p.Type == ir.Old {
                        continue
                    }
                    p.Type = ir.Old
                    na++
                    tr.Printw("pretenured allocation", "alloc", i, "root", r)
                }

                /* phis have no storage, keep them in the visited set */
                case *ir.Phi: {
                    if _, ok := phis[i]; ok {
                        continue
                    }
                    phis[i] = struct{}{}
                    np++
                }
            }

            /* everything stored into it follows */
            for _, v := range sg.contained(i, buf) {
                q.Enqueue(v)
            }
        }
    }

    /* update the statistics */
    atomic.AddUint64(&PretenuredAllocs, uint64(na))
    atomic.AddUint64(&PretenuredPhis, uint64(np))
}
