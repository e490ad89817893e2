/*
 * Copyright 2022 CloudWeGo Authors
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


package debug

import (
	"sync/atomic"

	"github.com/cloudwego/tenure/internal/ssa"
)

// A Stats records statistics about the optimizer.
type Stats struct {
	Runs       int
	Escape     EscapeStats
	Pretenured PretenureStats
}

// An EscapeStats records what late escape analysis removed.
type EscapeStats struct {
	Allocs int
	Stores int
}

// A PretenureStats records what pretenuring propagation promoted.
type PretenureStats struct {
	Allocs int
	Phis   int
}

// GetStats returns statistics accumulated by every Optimize call so far.
func GetStats() Stats {
	return Stats{
		Runs: int(atomic.LoadUint64(&ssa.RunCount)),
		Escape: EscapeStats{
			Allocs: int(atomic.LoadUint64(&ssa.RemovedAllocs)),
			Stores: int(atomic.LoadUint64(&ssa.RemovedStores)),
		},
		Pretenured: PretenureStats{
			Allocs: int(atomic.LoadUint64(&ssa.PretenuredAllocs)),
			Phis:   int(atomic.LoadUint64(&ssa.PretenuredPhis)),
		},
	}
}
