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

package tenure

import (
	"context"
	"go/token"

	"github.com/nikandfor/errors"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"

	"github.com/cloudwego/tenure/internal/lower"
	"github.com/cloudwego/tenure/internal/opts"
	"github.com/cloudwego/tenure/internal/ssa"
	"github.com/cloudwego/tenure/ir"
)

// Analyzer lowers every function of a package, runs Optimize over it and
// reports the heap allocations that were removed or pretenured.
var Analyzer = &analysis.Analyzer{
	Name:     "tenure",
	Doc:      "reports heap allocations that are never observed or that should be placed in old space",
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
}

var flags = opts.GetDefaultOptions()

func init() {
	Analyzer.Flags.BoolVar(&flags.Pretenuring, "pretenure", flags.Pretenuring, "report allocations reachable from package-level variables")
	Analyzer.Flags.BoolVar(&flags.Escape, "escape", flags.Escape, "report allocations that are only ever written into")
	Analyzer.Flags.IntVar(&flags.MaxOptSteps, "max-steps", flags.MaxOptSteps, "stop removing allocations after this many per function (0 means unlimited)")
}

func run(pass *analysis.Pass) (interface{}, error) {
	info := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	/* analyze every source function independently */
	for _, fn := range info.SrcFuncs {
		lf := lower.Lower(fn)
		if len(lf.Allocs) == 0 {
			continue
		}

		/* optimize the lowered graph */
		if err := ssa.Optimize(context.Background(), lf.Graph, flags); err != nil {
			return nil, errors.Wrap(err, "%s", fn.String())
		}

		/* report what happened to every heap allocation */
		for _, a := range lf.Allocs {
			if pos := a.Instr.Pos(); pos != token.NoPos {
				report(pass, pos, lf.Graph.Get(a.Index))
			}
		}
	}
	return nil, nil
}

func report(pass *analysis.Pass, pos token.Pos, op ir.Operation) {
	switch p := op.(type) {
	case *ir.Dead:
		pass.Reportf(pos, "allocation is never observed and can be eliminated")
	case *ir.Allocate:
		if p.Type == ir.Old {
			pass.Reportf(pos, "allocation is reachable from long-lived memory and should be pretenured")
		}
	}
}
