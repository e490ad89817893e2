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
    `sync`
)

var (
    zonePool    sync.Pool
    countPool   sync.Pool
    setPool     sync.Pool
    usesPool    sync.Pool
    indicesPool sync.Pool
)

// Zone hands out scratch containers for a single pass run. Everything taken
// from a zone goes back to the shared pools on Release, so none of it may be
// retained afterwards.
type Zone struct {
    counts  []map[OpIndex]int
    sets    []map[OpIndex]struct{}
    uses    []map[OpIndex][]OpIndex
    indices []*[]OpIndex
}

func NewZone() *Zone {
    if v := zonePool.Get(); v == nil {
        return new(Zone)
    } else {
        return v.(*Zone)
    }
}

// Counts returns an empty OpIndex -> int map.
func (self *Zone) Counts() map[OpIndex]int {
    var m map[OpIndex]int
    if v := countPool.Get(); v == nil {
        m = make(map[OpIndex]int)
    } else {
        m = v.(map[OpIndex]int)
    }
    self.counts = append(self.counts, m)
    return m
}

// Set returns an empty OpIndex set.
func (self *Zone) Set() map[OpIndex]struct{} {
    var m map[OpIndex]struct{}
    if v := setPool.Get(); v == nil {
        m = make(map[OpIndex]struct{})
    } else {
        m = v.(map[OpIndex]struct{})
    }
    self.sets = append(self.sets, m)
    return m
}

// Uses returns an empty OpIndex -> []OpIndex map.
func (self *Zone) Uses() map[OpIndex][]OpIndex {
    var m map[OpIndex][]OpIndex
    if v := usesPool.Get(); v == nil {
        m = make(map[OpIndex][]OpIndex)
    } else {
        m = v.(map[OpIndex][]OpIndex)
    }
    self.uses = append(self.uses, m)
    return m
}

// Indices returns a zero-length buffer. Callers append through the pointer
// so the grown buffer is what gets recycled.
func (self *Zone) Indices() *[]OpIndex {
    var p *[]OpIndex
    if v := indicesPool.Get(); v == nil {
        p = new([]OpIndex)
    } else {
        p = v.(*[]OpIndex)
    }
    self.indices = append(self.indices, p)
    return p
}

// Release returns every container to the pools and recycles the zone.
func (self *Zone) Release() {
    for _, m := range self.counts {
        clear(m)
        countPool.Put(m)
    }
    for _, m := range self.sets {
        clear(m)
        setPool.Put(m)
    }
    for _, m := range self.uses {
        clear(m)
        usesPool.Put(m)
    }
    for _, p := range self.indices {
        *p = (*p)[:0]
        indicesPool.Put(p)
    }
    resetZone(self)
    zonePool.Put(self)
}

func resetZone(p *Zone) {
    p.counts  = p.counts[:0]
    p.sets    = p.sets[:0]
    p.uses    = p.uses[:0]
    p.indices = p.indices[:0]
}
