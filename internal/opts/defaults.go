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

import (
	"os"
	"strconv"
)

var (
	MaxOptSteps        = parseIntOrDefault("TENURE_MAX_OPT_STEPS", 0)
	DisablePretenuring = parseBoolOrDefault("TENURE_DISABLE_PRETENURING", false)
	DisableEscape      = parseBoolOrDefault("TENURE_DISABLE_ESCAPE", false)
)

func parseIntOrDefault(key string, def int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 31); err != nil {
		panic("tenure: invalid value for " + key)
	} else {
		return int(val)
	}
}

func parseBoolOrDefault(key string, def bool) bool {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseBool(env); err != nil {
		panic("tenure: invalid value for " + key)
	} else {
		return val
	}
}
