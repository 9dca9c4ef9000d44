// Package engine provides the concurrency kernel of a lattice Monte
// Carlo session.
//
// A session couples a long-lived hot loop with the tasks that observe
// and steer it:
//
//   - [State]: shared run flags, temperature, counters, and brush
//   - [Loop]: the Metropolis hot loop with its park/branch/resume cycle
//   - [Gate]: at-most-one-in-flight dispatch for maintenance tasks
//   - [Window]: fixed-length sample windows flushed at frame boundaries
//   - [Session]: wires the above and owns sweeps and snapshots
//
// # Example
//
//	lat, _ := lattice.New(lattice.Spec{Model: lattice.ModelIsing, Width: 64, Height: 64})
//	ses, _ := engine.NewSession(lat, engine.Options{Temperature: 2.269})
//	go ses.Run(ctx)
//	ses.FrameTick() // from the render driver, once per frame
//
// # Thread Safety
//
// State flags and published observables are safe for concurrent use.
// The hot loop is the only writer of the running flag; structural
// lattice changes must go through [State.Reconfigure], which drains the
// loop first. Per-site lattice access is atomic, so painting and frame
// capture may overlap live stepping.
package engine
