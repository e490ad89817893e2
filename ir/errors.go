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
)

// InvariantError occures when a graph violates an internal consistency rule.
// It is raised with panic and is never recoverable by the pass that found it.
type InvariantError struct {
    Where  string
    Op     OpIndex
    Reason string
}

func (self InvariantError) Error() string {
    if self.Op == Invalid {
        return fmt.Sprintf("InvariantError(%s): %s", self.Where, self.Reason)
    } else {
        return fmt.Sprintf("InvariantError(%s, %s): %s", self.Where, self.Op, self.Reason)
    }
}

func EInvariant(where string, op OpIndex, reason string) InvariantError {
    return InvariantError {
        Where  : where,
        Op     : op,
        Reason : reason,
    }
}

func EMalformedStore(where string, op OpIndex, st *Store) InvariantError {
    return EInvariant(where, op, fmt.Sprintf(
        "%s has %d inputs, base slot is %d and value slot is %d",
        st.Kind,
        len(st.Args),
        st.BaseSlot(),
        st.ValueSlot(),
    ))
}
