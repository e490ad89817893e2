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
	"github.com/nikandfor/errors"

	"github.com/cloudwego/tenure/ir"
)

// InvariantError occures when a graph handed to Optimize is malformed.
type InvariantError = ir.InvariantError

// IsInvariantError reports whether err was caused by a malformed graph and
// returns the violation.
func IsInvariantError(err error) (InvariantError, bool) {
	var e InvariantError
	ok := errors.As(err, &e)
	return e, ok
}
