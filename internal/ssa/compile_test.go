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
    `errors`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/tenure/internal/opts`
    `github.com/cloudwego/tenure/ir`
    `github.com/davecgh/go-spew/spew`
    `github.com/nikandfor/tlog`
    `github.com/stretchr/testify/require`
)

func allPasses() opts.Options {
    return opts.Options{Pretenuring: true, Escape: true}
}

func TestOptimize_Pipeline(t *testing.T) {
    b := newGraphBuilder()
    a1 := b.old()
    a2 := b.young()
    s := b.store(a1, a2)
    r := b.ret(a1)
    a3 := b.young()
    s3 := b.store(a3, a2)
    require.NoError(t, Optimize(context.Background(), b.g, allPasses()))
    requireType(t, b.g, ir.Old, a1, a2)
    requireLive(t, b.g, a1, a2, s, r)
    requireDead(t, b.g, a3, s3)
}

func TestOptimize_PretenuringSeesRemovedAllocations(t *testing.T) {
    b := newGraphBuilder()
    a1 := b.young()
    old := b.old()
    b.store(old, a1)
    b.ret(old)

    /* a1 escapes through the old allocation and is promoted */
    require.NoError(t, Optimize(context.Background(), b.g, allPasses()))
    requireType(t, b.g, ir.Old, a1)
}

func TestOptimize_TracedContext(t *testing.T) {
    tr := tlog.Start("optimize test")
    defer tr.Finish()

    /* passes spawn their spans from the one in the context */
    b := newGraphBuilder()
    old := b.old()
    a := b.young()
    b.store(old, a)
    b.ret(old)
    u := b.young()
    require.NoError(t, Optimize(tlog.ContextWithSpan(context.Background(), tr), b.g, allPasses()))
    requireType(t, b.g, ir.Old, a)
    requireDead(t, b.g, u)
}

func TestOptimize_DisabledPasses(t *testing.T) {
    b := newGraphBuilder()
    old := b.old()
    a := b.young()
    b.store(old, a)
    u := b.young()

    /* escape analysis only */
    require.NoError(t, Optimize(context.Background(), b.g, opts.Options{Escape: true}))
    requireDead(t, b.g, old, a, u)

    /* pretenuring only */
    b = newGraphBuilder()
    old = b.old()
    a = b.young()
    b.store(old, a)
    u = b.young()
    require.NoError(t, Optimize(context.Background(), b.g, opts.Options{Pretenuring: true}))
    requireLive(t, b.g, old, a, u)
    requireType(t, b.g, ir.Old, a)
}

func TestOptimize_InvariantViolation(t *testing.T) {
    b := newGraphBuilder()
    a := b.young()
    b.g.Add(&ir.Store{Kind: ir.StoreGeneric, Args: []ir.OpIndex{a}})
    err := Optimize(context.Background(), b.g, allPasses())
    require.Error(t, err)

    /* the violation is reachable through the wrapper */
    var e ir.InvariantError
    require.True(t, errors.As(err, &e), "%v", err)
    require.Equal(t, "pretenuring propagation", e.Where)
    require.Contains(t, err.Error(), "Pretenuring Propagation")
}

func TestOptimize_OtherPanicsPropagate(t *testing.T) {
    g := ir.NewGraph()
    g.Add(&ir.Store{Kind: ir.StoreKind(42), Args: []ir.OpIndex{0, 0}})
    require.PanicsWithValue(t, "unreachable", func() {
        _ = Optimize(context.Background(), g, allPasses())
    })
}

func TestOptimize_Stats(t *testing.T) {
    runs := RunCount
    allocs := RemovedAllocs
    pretenured := PretenuredAllocs
    b := newGraphBuilder()
    old := b.old()
    a := b.young()
    b.store(old, a)
    b.ret(old)
    b.young()
    require.NoError(t, Optimize(context.Background(), b.g, allPasses()))
    require.Equal(t, runs+1, RunCount)
    require.Equal(t, allocs+1, RemovedAllocs)
    require.Equal(t, pretenured+1, PretenuredAllocs)
}

func randomGraph(f *gofakeit.Faker, n int) *ir.Graph {
    g := ir.NewGraph()
    g.Add(&ir.Other{Name: "const"})
    pick := func() ir.OpIndex {
        return ir.OpIndex(f.IntRange(0, g.Len()-1))
    }
    for g.Len() < n {
        switch f.IntRange(0, 6) {
            case 0, 1: {
                if f.IntRange(0, 3) == 0 {
                    g.Add(&ir.Allocate{Type: ir.Old})
                } else {
                    g.Add(&ir.Allocate{Type: ir.Young})
                }
            }
            case 2, 3, 4 : g.Add(&ir.Store{Kind: ir.StoreKind(f.IntRange(0, 1)), Args: []ir.OpIndex{pick(), pick()}})
            case 5       : g.Add(&ir.Phi{Args: []ir.OpIndex{pick(), pick()}})
            case 6       : g.Add(&ir.Other{Name: "use", Args: []ir.OpIndex{pick()}})
        }
    }
    return g
}

func isAllocateOp(g *ir.Graph, i ir.OpIndex) bool {
    _, ok := g.Get(i).(*ir.Allocate)
    return ok
}

// observed returns the allocations used by a phi or an opaque operation.
func observed(g *ir.Graph) map[ir.OpIndex]bool {
    ret := make(map[ir.OpIndex]bool)
    g.ForEach(func(i ir.OpIndex, op ir.Operation) {
        switch op.(type) {
            case *ir.Phi, *ir.Other: {
                for _, in := range op.Inputs() {
                    if isAllocateOp(g, in) {
                        ret[in] = true
                    }
                }
            }
        }
    })
    return ret
}

// witnessed returns the allocations with at least one live use other than
// being the base of a store.
func witnessed(g *ir.Graph) map[ir.OpIndex]bool {
    ret := make(map[ir.OpIndex]bool)
    g.ForEach(func(i ir.OpIndex, op ir.Operation) {
        base := -1
        if st, ok := op.(*ir.Store); ok {
            base = st.BaseSlot()
        }
        for slot, in := range op.Inputs() {
            if slot != base && isAllocateOp(g, in) {
                ret[in] = true
            }
        }
    })
    return ret
}

func TestOptimize_RandomGraphs(t *testing.T) {
    for seed := int64(1); seed <= 200; seed++ {
        f := gofakeit.New(seed)
        g := randomGraph(f, f.IntRange(2, 64))
        dump := spew.Sdump(seed, g.String())
        keep := observed(g)

        /* escape soundness */
        require.NoError(t, Optimize(context.Background(), g, allPasses()), dump)
        for a := range keep {
            require.False(t, g.IsDead(a), "observed allocation %s was removed\n%s", a, dump)
        }

        /* every surviving allocation still has a witness */
        w := witnessed(g)
        g.ForEach(func(i ir.OpIndex, op ir.Operation) {
            if _, ok := op.(*ir.Allocate); ok {
                require.True(t, w[i], "allocation %s survived without a witness\n%s", i, dump)
            }
        })

        /* stores into old allocations hold old allocations */
        g.ForEach(func(i ir.OpIndex, op ir.Operation) {
            if st, ok := op.(*ir.Store); ok {
                base, bok := g.Get(st.Base()).(*ir.Allocate)
                value, vok := g.Get(st.Value()).(*ir.Allocate)
                if bok && vok && base.Type == ir.Old {
                    require.Equal(t, ir.Old, value.Type, "store %s\n%s", i, dump)
                }
            }
        })

        /* running again changes nothing */
        after := g.String()
        require.NoError(t, Optimize(context.Background(), g, allPasses()), dump)
        require.Equal(t, after, g.String(), dump)
    }
}
