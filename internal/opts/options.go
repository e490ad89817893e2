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

package opts

type Options struct {
	Pretenuring bool
	Escape      bool
	MaxOptSteps int
}

// Budget counts optimization steps against Options.MaxOptSteps.
type Budget struct {
	max  int
	used int
}

func (self *Options) NewBudget() *Budget {
	return &Budget{max: self.MaxOptSteps}
}

// Step consumes one step and reports whether it may be taken. A zero limit
// never runs out.
func (self *Budget) Step() bool {
	if self.max != 0 && self.used >= self.max {
		return false
	} else {
		self.used++
		return true
	}
}

func (self *Budget) Used() int {
	return self.used
}

func GetDefaultOptions() Options {
	return Options{
		Pretenuring: !DisablePretenuring,
		Escape:      !DisableEscape,
		MaxOptSteps: MaxOptSteps,
	}
}
