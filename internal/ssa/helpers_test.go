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
    `testing`

    `github.com/cloudwego/tenure/internal/opts`
    `github.com/cloudwego/tenure/ir`
    `github.com/stretchr/testify/require`
)

type graphBuilder struct {
    g *ir.Graph
}

func newGraphBuilder() graphBuilder {
    return graphBuilder{g: ir.NewGraph()}
}

func (b graphBuilder) young() ir.OpIndex {
    return b.g.Add(&ir.Allocate{Type: ir.Young})
}

func (b graphBuilder) old() ir.OpIndex {
    return b.g.Add(&ir.Allocate{Type: ir.Old})
}

func (b graphBuilder) store(base ir.OpIndex, value ir.OpIndex) ir.OpIndex {
    return b.g.Add(&ir.Store{Kind: ir.StoreGeneric, Args: []ir.OpIndex{base, value}})
}

func (b graphBuilder) phi(in ...ir.OpIndex) ir.OpIndex {
    return b.g.Add(&ir.Phi{Args: in})
}

func (b graphBuilder) other(name string, in ...ir.OpIndex) ir.OpIndex {
    return b.g.Add(&ir.Other{Name: name, Args: in})
}

func (b graphBuilder) ret(in ir.OpIndex) ir.OpIndex {
    return b.other("return", in)
}

func (b graphBuilder) constant() ir.OpIndex {
    return b.other("const")
}

func applyWithOptions(p Pass, g *ir.Graph, o opts.Options) {
    u := &Unit {
        Graph  : g,
        Zone   : ir.NewZone(),
        Budget : o.NewBudget(),
    }
    defer u.Zone.Release()
    p.Apply(context.Background(), u)
}

func apply(p Pass, g *ir.Graph) {
    applyWithOptions(p, g, opts.Options{Pretenuring: true, Escape: true})
}

func catchInvariant(t *testing.T, fn func()) (ret ir.InvariantError) {
    t.Helper()
    defer func() {
        v := recover()
        require.NotNil(t, v, "expected a panic")
        require.IsType(t, ir.InvariantError{}, v)
        ret = v.(ir.InvariantError)
    }()
    fn()
    return
}

func requireDead(t *testing.T, g *ir.Graph, idx ...ir.OpIndex) {
    t.Helper()
    for _, i := range idx {
        require.True(t, g.IsDead(i), "%s should be dead\n%s", i, g)
    }
}

func requireLive(t *testing.T, g *ir.Graph, idx ...ir.OpIndex) {
    t.Helper()
    for _, i := range idx {
        require.False(t, g.IsDead(i), "%s should be live\n%s", i, g)
    }
}

func requireType(t *testing.T, g *ir.Graph, typ ir.AllocationType, idx ...ir.OpIndex) {
    t.Helper()
    for _, i := range idx {
        a, ok := g.Get(i).(*ir.Allocate)
        require.True(t, ok, "%s is not an allocation\n%s", i, g)
        require.Equal(t, typ, a.Type, "allocation %s\n%s", i, g)
    }
}
