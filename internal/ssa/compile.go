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

package ssa

import (
    `context`
    `sync/atomic`

    `github.com/cloudwego/tenure/internal/opts`
    `github.com/cloudwego/tenure/ir`
    `github.com/nikandfor/errors`
    `github.com/nikandfor/tlog`
)

// Unit is the state a pass sees for one compilation unit. The zone and the
// budget live exactly as long as one Optimize call.
type Unit struct {
    Graph  *ir.Graph
    Zone   *ir.Zone
    Budget *opts.Budget
}

type Pass interface {
    Apply(context.Context, *Unit)
}

type PassDescriptor struct {
    Pass    Pass
    Name    string
    Enabled func(*opts.Options) bool
}

// Passes run in this order. Pretenuring must see every allocation before
// escape analysis removes any of them.
var Passes = [...]PassDescriptor {
    { Name: "Pretenuring Propagation" , Pass: new(Pretenuring) , Enabled: func(o *opts.Options) bool { return o.Pretenuring } },
    { Name: "Late Escape Analysis"    , Pass: new(LateEscape)  , Enabled: func(o *opts.Options) bool { return o.Escape } },
}

// Optimize runs every enabled pass over g. An internal consistency
// violation aborts the remaining passes and is returned as an error
// wrapping ir.InvariantError; g may be partially rewritten in that case.
func Optimize(ctx context.Context, g *ir.Graph, o opts.Options) (err error) {
    tr := tlog.SpawnFromContext(ctx, "tenure: optimize", "ops", g.Len())
    ctx = tlog.ContextWithSpan(ctx, tr)
    defer func() { tr.Finish("live", g.Live(), "err", err) }()

    /* scratch space and step budget for this unit */
    u := &Unit {
        Graph  : g,
        Zone   : ir.NewZone(),
        Budget : o.NewBudget(),
    }

    /* release the scratch space no matter how the passes end */
    defer u.Zone.Release()
    atomic.AddUint64(&RunCount, 1)

    /* execute all the passes */
    for _, p := range Passes {
        if !p.Enabled(&o) {
            tr.Printw("pass disabled", "pass", p.Name)
        } else if err = applyPass(ctx, p, u); err != nil {
            return
        }
    }

    /* all done */
    return nil
}

func applyPass(ctx context.Context, p PassDescriptor, u *Unit) (err error) {
    defer func() {
        if v := recover(); v != nil {
            if e, ok := v.(ir.InvariantError); ok {
                err = errors.Wrap(e, "%s", p.Name)
            } else {
                panic(v)
            }
        }
    }()
    p.Pass.Apply(ctx, u)
    return nil
}
