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
)

// LateEscape removes allocations that are only ever written into, together
// with the stores that initialize them.
//
// Every use of an allocation is a witness that it escapes, except being the
// base of a store. Phis count as witnesses.
type LateEscape struct{}

func isAllocate(g *ir.Graph, i ir.OpIndex) bool {
    _, ok := g.Get(i).(*ir.Allocate)
    return ok
}

func (LateEscape) Apply(ctx context.Context, u *Unit) {
    g := u.Graph
    nr, ns := 0, 0
    tr := tlog.SpawnFromContext(ctx, "late escape analysis")
    defer func() { tr.Finish("removed_allocs", nr, "removed_stores", ns) }()

    /* scratch space */
    allocs  := u.Zone.Indices()
    stores  := u.Zone.Uses()
    witness := u.Zone.Counts()

    /* Phase 1: count witnesses and record the stores into every allocation */
    g.ForEach(func(i ir.OpIndex, op ir.Operation) {
        base := -1
        args := op.Inputs()

        /* the base operand of a store is the only non-escaping use */
        if st, ok := op.(*ir.Store); ok {
            if !st.Valid() {
                panic(ir.EMalformedStore("late escape analysis", i, st))
            } else {
                base = st.BaseSlot()
            }
        }

        /* classify every edge into an allocation */
        for slot, in := range args {
            if isAllocate(g, in) {
                if slot == base {
                    stores[in] = append(stores[in], i)
                } else {
                    witness[in]++
                }
            }
        }

        /* remember all the allocations */
        if _, ok := op.(*ir.Allocate); ok {
            *allocs = append(*allocs, i)
        }
    })

    /* innermost allocations are popped first */
    q := lane.NewStack()
    for _, a := range *allocs {
        q.Push(a)
    }

    /* Phase 2: remove allocations without witnesses */
    for !q.Empty() {
        a := q.Pop().(ir.OpIndex)

        /* removed already, or observed by something */
        if g.IsDead(a) || witness[a] != 0 {
            continue
        }

        /* out of optimization steps */
        if !u.Budget.Step() {
            tr.Printw("optimization step budget exhausted", "alloc", a, "steps", u.Budget.Used())
            break
        }

        /* the stores into this allocation go away with it */
        for _, s := range stores[a] {
            st := g.Get(s).(*ir.Store)
            bs := st.BaseSlot()

            /* whatever this store held no longer has it as a witness */
            for slot, in := range st.Args {
                if slot != bs && isAllocate(g, in) {
                    if witness[in] <= 0 {
                        panic(ir.EInvariant("late escape analysis", in, "witness count underflow"))
                    }
                    if witness[in]--; witness[in] == 0 {
                        q.Push(in)
                    }
                }
            }

            /* kill the store */
            g.Kill(s)
            ns++
        }

        /* kill the allocation */
        g.Kill(a)
        nr++
        tr.Printw("removed allocation", "alloc", a, "stores", len(stores[a]))
    }

    /* update the statistics */
    atomic.AddUint64(&RemovedAllocs, uint64(nr))
    atomic.AddUint64(&RemovedStores, uint64(ns))
}
