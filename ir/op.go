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

// OpIndex addresses an operation slot in a Graph. Indices are issued in
// creation order and are never reused.
type OpIndex uint32

// Invalid is never issued by a Graph.
const Invalid OpIndex = ^OpIndex(0)

func (self OpIndex) String() string {
    if self == Invalid {
        return "%invalid"
    } else {
        return fmt.Sprintf("%%%d", uint32(self))
    }
}

// AllocationType is the heap generation an allocation is placed in.
type AllocationType uint8

const (
    Young AllocationType = iota
    Old
)

func (self AllocationType) String() string {
    switch self {
        case Young : return "young"
        case Old   : return "old"
        default    : return fmt.Sprintf("AllocationType(%d)", uint8(self))
    }
}

// StoreKind selects the operand layout of a Store.
type StoreKind uint8

const (
    // StoreGeneric takes [base, value] or [base, value, index].
    StoreGeneric StoreKind = iota

    // StoreField initializes a field and takes [value, base].
    StoreField
)

func (self StoreKind) String() string {
    switch self {
        case StoreGeneric : return "store"
        case StoreField   : return "store.field"
        default           : return fmt.Sprintf("StoreKind(%d)", uint8(self))
    }
}

// Operation is one of *Allocate, *Store, *Phi, *Dead or *Other.
type Operation interface {
    fmt.Stringer
    Inputs() []OpIndex
    irop()
}

func (*Allocate) irop() {}
func (*Store)    irop() {}
func (*Phi)      irop() {}
func (*Dead)     irop() {}
func (*Other)    irop() {}

// Allocate creates a heap object. Args are auxiliary inputs such as the size.
type Allocate struct {
    Type AllocationType
    Args []OpIndex
}

func (self *Allocate) Inputs() []OpIndex {
    return self.Args
}

func (self *Allocate) String() string {
    if len(self.Args) == 0 {
        return fmt.Sprintf("allocate[%s]", self.Type)
    } else {
        return fmt.Sprintf("allocate[%s] %s", self.Type, joinIndices(self.Args))
    }
}

// Store writes the value operand into the base operand.
type Store struct {
    Kind StoreKind
    Args []OpIndex
}

func (self *Store) Inputs() []OpIndex {
    return self.Args
}

// BaseSlot is the input position of the object written into.
func (self *Store) BaseSlot() int {
    switch self.Kind {
        case StoreGeneric : return 0
        case StoreField   : return 1
        default           : panic("unreachable")
    }
}

// ValueSlot is the input position of the payload.
func (self *Store) ValueSlot() int {
    switch self.Kind {
        case StoreGeneric : return 1
        case StoreField   : return 0
        default           : panic("unreachable")
    }
}

// IndexSlot is the input position of the optional index, or -1.
func (self *Store) IndexSlot() int {
    if self.Kind == StoreGeneric && len(self.Args) > 2 {
        return 2
    } else {
        return -1
    }
}

// Valid reports whether both the base and value slots are present.
func (self *Store) Valid() bool {
    return self.BaseSlot() < len(self.Args) && self.ValueSlot() < len(self.Args)
}

func (self *Store) Base() OpIndex {
    return self.Args[self.BaseSlot()]
}

func (self *Store) Value() OpIndex {
    return self.Args[self.ValueSlot()]
}

func (self *Store) String() string {
    if !self.Valid() {
        return fmt.Sprintf("%s <malformed> %s", self.Kind, joinIndices(self.Args))
    } else if i := self.IndexSlot(); i < 0 {
        return fmt.Sprintf("%s %s <- %s", self.Kind, self.Base(), self.Value())
    } else {
        return fmt.Sprintf("%s %s[%s] <- %s", self.Kind, self.Base(), self.Args[i], self.Value())
    }
}

// Phi merges its inputs at a control-flow join.
type Phi struct {
    Args []OpIndex
}

func (self *Phi) Inputs() []OpIndex {
    return self.Args
}

func (self *Phi) String() string {
    return fmt.Sprintf("φ(%s)", joinIndices(self.Args))
}

// Dead is the tombstone left by Graph.Kill. The inputs of the killed
// operation stay readable.
type Dead struct {
    Args []OpIndex
}

func (self *Dead) Inputs() []OpIndex {
    return self.Args
}

func (self *Dead) String() string {
    return "dead"
}

// Other is any operation the passes do not look into. It observes all of
// its inputs.
type Other struct {
    Name string
    Args []OpIndex
}

func (self *Other) Inputs() []OpIndex {
    return self.Args
}

func (self *Other) String() string {
    if len(self.Args) == 0 {
        return self.Name
    } else {
        return self.Name + " " + joinIndices(self.Args)
    }
}

func joinIndices(v []OpIndex) string {
    buf := make([]string, len(v))
    for i, p := range v {
        buf[i] = p.String()
    }
    return strings.Join(buf, ", ")
}
