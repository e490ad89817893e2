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

// Package tenure removes allocations that are never observed and propagates
// old-generation placement through the stores of an ir.Graph.
package tenure

import (
	"context"

	"github.com/cloudwego/tenure/internal/opts"
	"github.com/cloudwego/tenure/internal/ssa"
	"github.com/cloudwego/tenure/ir"
)

// Optimize runs pretenuring propagation followed by late escape analysis
// over g, rewriting it in place.
//
// The caller must have exclusive access to g for the duration of the call.
// A non-nil error wraps an InvariantError and means g is malformed; the
// compilation of g must be abandoned.
func Optimize(ctx context.Context, g *ir.Graph, options ...Option) error {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}
	return ssa.Optimize(ctx, g, o)
}
