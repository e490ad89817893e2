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

package ir

import (
    `fmt`
    `strings`
)

// Graph is an insertion-ordered store of operations. Removing an operation
// replaces its slot with a *Dead tombstone, so indices stay stable for the
// lifetime of the graph.
type Graph struct {
    ops  []Operation
    dead int
}

func NewGraph() *Graph {
    return new(Graph)
}

// Add appends op and returns its index.
func (self *Graph) Add(op Operation) OpIndex {
    if op == nil {
        panic("ir: adding nil operation")
    }
    if uint64(len(self.ops)) >= uint64(Invalid) {
        panic("ir: graph is full")
    }
    self.ops = append(self.ops, op)
    return OpIndex(len(self.ops) - 1)
}

// Get returns the operation at i. i must have been issued by this graph.
func (self *Graph) Get(i OpIndex) Operation {
    if int64(i) >= int64(len(self.ops)) {
        panic(EInvariant("graph", i, fmt.Sprintf("index out of range [0, %d)", len(self.ops))))
    }
    return self.ops[i]
}

// Contains reports whether i was issued by this graph.
func (self *Graph) Contains(i OpIndex) bool {
    return int64(i) < int64(len(self.ops))
}

// IsDead reports whether i has been killed.
func (self *Graph) IsDead(i OpIndex) bool {
    _, ok := self.Get(i).(*Dead)
    return ok
}

// Kill tombstones the operation at i. Killing a dead operation is a no-op.
func (self *Graph) Kill(i OpIndex) {
    switch op := self.Get(i).(type) {
        case *Dead: break
        default: self.ops[i], self.dead = &Dead{Args: op.Inputs()}, self.dead + 1
    }
}

// Len is the number of issued indices, dead ones included.
func (self *Graph) Len() int {
    return len(self.ops)
}

// Live is the number of operations that have not been killed.
func (self *Graph) Live() int {
    return len(self.ops) - self.dead
}

// Operations iterates over live operations in creation order. Each call
// returns a fresh iterator.
func (self *Graph) Operations() *OpIter {
    return &OpIter{g: self, i: -1}
}

// ForEach calls action for every live operation in creation order.
func (self *Graph) ForEach(action func(i OpIndex, op Operation)) {
    self.Operations().ForEach(action)
}

func (self *Graph) String() string {
    buf := make([]string, 0, len(self.ops))
    for i, op := range self.ops {
        buf = append(buf, fmt.Sprintf("%6s = %s", OpIndex(i), op))
    }
    return fmt.Sprintf(
        "Graph {\n%s\n}",
        strings.Join(buf, "\n"),
    )
}

// OpIter walks the live operations of a Graph. Operations killed or added
// while iterating are observed by the remaining steps.
type OpIter struct {
    g *Graph
    i int
}

func (self *OpIter) Next() bool {
    for self.i++; self.i < len(self.g.ops); self.i++ {
        if _, ok := self.g.ops[self.i].(*Dead); !ok {
            return true
        }
    }
    return false
}

func (self *OpIter) Index() OpIndex {
    return OpIndex(self.i)
}

func (self *OpIter) Op() Operation {
    return self.g.ops[self.i]
}

func (self *OpIter) ForEach(action func(i OpIndex, op Operation)) {
    for self.Next() {
        action(self.Index(), self.Op())
    }
}
