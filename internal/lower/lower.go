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

// Package lower translates go/ssa functions into ir graphs.
//
// Heap allocations become young Allocate operations and package-level
// variables become old ones, each kept alive by a "global" root. Field and
// element addresses that only serve as store targets are folded into the
// store, so writing into an object does not count as observing it.
package lower

import (
    `fmt`
    `strings`

    `github.com/cloudwego/tenure/ir`
    `golang.org/x/tools/go/ssa`
)

// Alloc ties a heap allocation to its operation.
type Alloc struct {
    Instr *ssa.Alloc
    Index ir.OpIndex
}

// Func is the lowered form of one Go function.
type Func struct {
    Fn     *ssa.Function
    Graph  *ir.Graph
    Allocs []Alloc
}

type _Lowerer struct {
    g      *ir.Graph
    vals   map[ssa.Value]ir.OpIndex
    folded map[ssa.Value]bool
}

// Lower builds the graph of fn. Functions without a body produce an empty
// graph.
func Lower(fn *ssa.Function) *Func {
    ret := &Func {
        Fn    : fn,
        Graph : ir.NewGraph(),
    }

    /* nothing to do for external functions */
    if len(fn.Blocks) == 0 {
        return ret
    }

    /* create the lowerer */
    l := &_Lowerer {
        g      : ret.Graph,
        vals   : make(map[ssa.Value]ir.OpIndex),
        folded : make(map[ssa.Value]bool),
    }

    /* Phase 1: find addresses that only ever feed stores */
    for _, bb := range fn.Blocks {
        for _, ins := range bb.Instrs {
            if v, ok := ins.(ssa.Value); ok {
                l.foldable(v)
            }
        }
    }

    /* Phase 2: materialize the operands that are not instructions */
    for _, bb := range fn.Blocks {
        for _, ins := range bb.Instrs {
            for _, p := range ins.Operands(nil) {
                if p != nil && *p != nil {
                    l.external(*p)
                }
            }
        }
    }

    /* Phase 3: number the remaining instructions */
    base := ir.OpIndex(l.g.Len())
    order := make([]ssa.Instruction, 0, len(fn.Blocks) * 4)

    /* assign indices in block order */
    for _, bb := range fn.Blocks {
        for _, ins := range bb.Instrs {
            if l.skip(ins) {
                continue
            }
            if v, ok := ins.(ssa.Value); ok {
                l.vals[v] = base + ir.OpIndex(len(order))
            }
            order = append(order, ins)
        }
    }

    /* Phase 4: emit the operations */
    for i, ins := range order {
        if idx := l.g.Add(l.instr(ins)); idx != base + ir.OpIndex(i) {
            panic(ir.EInvariant("lower", idx, fmt.Sprintf("expected index %s for %s", base + ir.OpIndex(i), ins)))
        }
        if p, ok := ins.(*ssa.Alloc); ok && p.Heap {
            ret.Allocs = append(ret.Allocs, Alloc{Instr: p, Index: l.vals[p]})
        }
    }

    /* all done */
    return ret
}

func (self *_Lowerer) skip(ins ssa.Instruction) bool {
    if _, ok := ins.(*ssa.DebugRef); ok {
        return true
    } else if v, ok := ins.(ssa.Value); ok {
        return self.folded[v]
    } else {
        return false
    }
}

// foldable reports whether v is a field or element address whose every use
// is the address of a store, possibly through further foldable addresses.
func (self *_Lowerer) foldable(v ssa.Value) bool {
    if ok, seen := self.folded[v]; seen {
        return ok
    }

    /* only address computations can be folded */
    switch v.(type) {
        case *ssa.FieldAddr : break
        case *ssa.IndexAddr : break
        default             : return false
    }

    /* assume the worst until proven otherwise */
    self.folded[v] = false
    refs := v.Referrers()

    /* unused addresses are kept */
    if refs == nil || len(*refs) == 0 {
        return false
    }

    /* check every use */
    for _, r := range *refs {
        switch u := r.(type) {
            case *ssa.DebugRef  : continue
            case *ssa.Store     : if u.Addr != v || u.Val == v { return false }
            case *ssa.FieldAddr : if !self.foldable(u) { return false }
            case *ssa.IndexAddr : if u.X != v || !self.foldable(u) { return false }
            default             : return false
        }
    }

    /* every use is a store target */
    self.folded[v] = true
    return true
}

func (self *_Lowerer) external(v ssa.Value) {
    if _, ok := v.(ssa.Instruction); ok {
        return
    }
    if _, ok := self.vals[v]; ok {
        return
    }

    /* package-level variables live in old space and are always observable */
    if gv, ok := v.(*ssa.Global); ok {
        idx := self.g.Add(&ir.Allocate{Type: ir.Old})
        self.g.Add(&ir.Other{Name: "global " + gv.Name(), Args: []ir.OpIndex{idx}})
        self.vals[v] = idx
        return
    }

    /* constants, parameters, functions, ... */
    self.vals[v] = self.g.Add(&ir.Other{Name: opname(v)})
}

func (self *_Lowerer) value(v ssa.Value) ir.OpIndex {
    if idx, ok := self.vals[v]; ok {
        return idx
    } else {
        panic(ir.EInvariant("lower", ir.Invalid, "value has no operation: " + v.String()))
    }
}

// address resolves a store target to the object written into.
func (self *_Lowerer) address(v ssa.Value) (base ir.OpIndex, index ir.OpIndex) {
    switch p := v.(type) {
        case *ssa.FieldAddr: {
            if self.folded[p] {
                return self.address(p.X)
            }
        }

        case *ssa.IndexAddr: {
            if self.folded[p] {
                base, _ = self.address(p.X)
                return base, self.value(p.Index)
            }
        }
    }
    return self.value(v), ir.Invalid
}

func (self *_Lowerer) instr(ins ssa.Instruction) ir.Operation {
    switch p := ins.(type) {
        case *ssa.Alloc: {
            if p.Heap {
                return &ir.Allocate{Type: ir.Young}
            } else {
                return &ir.Other{Name: "local"}
            }
        }

        case *ssa.Store: {
            base, idx := self.address(p.Addr)
            args := []ir.OpIndex{base, self.value(p.Val)}

            /* keep the element index of folded element addresses */
            if idx != ir.Invalid {
                args = append(args, idx)
            }

            /* a plain write into the object */
            return &ir.Store {
                Kind: ir.StoreGeneric,
                Args: args,
            }
        }

        case *ssa.Phi: {
            args := make([]ir.OpIndex, len(p.Edges))
            for i, e := range p.Edges {
                args[i] = self.value(e)
            }
            return &ir.Phi{Args: args}
        }

        default: {
            var args []ir.OpIndex
            for _, v := range ins.Operands(nil) {
                if v != nil && *v != nil {
                    args = append(args, self.value(*v))
                }
            }
            return &ir.Other{Name: opname(ins), Args: args}
        }
    }
}

func opname(v interface{}) string {
    return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", v), "*ssa."))
}
