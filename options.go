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
	"fmt"

	"github.com/cloudwego/tenure/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithPretenuring enables or disables pretenuring propagation.
//
// This value can also be configured with the `TENURE_DISABLE_PRETENURING`
// environment variable.
func WithPretenuring(enable bool) Option {
	return func(o *opts.Options) { o.Pretenuring = enable }
}

// WithEscapeAnalysis enables or disables late escape analysis.
//
// This value can also be configured with the `TENURE_DISABLE_ESCAPE`
// environment variable.
func WithEscapeAnalysis(enable bool) Option {
	return func(o *opts.Options) { o.Escape = enable }
}

// WithMaxOptSteps limits how many allocations a single Optimize call may
// remove. Lowering it one by one is a way to bisect a miscompilation down to
// the removal that caused it.
//
// Set this option to "0" disables this limit.
//
// The default value of this option is "0".
func WithMaxOptSteps(steps int) Option {
	if steps < 0 {
		panic(fmt.Sprintf("tenure: invalid optimization step limit: %d", steps))
	} else {
		return func(o *opts.Options) { o.MaxOptSteps = steps }
	}
}

// SetMaxOptSteps sets the default optimization step limit for all graphs
// from now on.
//
// This value can also be configured with the `TENURE_MAX_OPT_STEPS`
// environment variable.
//
// Returns the old opts.MaxOptSteps value.
func SetMaxOptSteps(steps int) int {
	steps, opts.MaxOptSteps = opts.MaxOptSteps, steps
	return steps
}
