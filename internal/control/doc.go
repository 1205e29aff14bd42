// Package control implements the engine-speed control pipeline.
//
// A Pipeline evaluates a fixed, ordered list of stages once per input row:
// ignition, limp-mode monitoring, brake-throttle override, the baseline torque
// model, cruise control, coastdown, idle control, the limp-mode cap, the rev
// limiter and finally the slew-rate limiter. Each stage reads the row input,
// the provisional speed left by the previous stage and the speed emitted on
// the previous row; a few stages also own fields of the persistent State
// (latches, counters, the release ramp).
//
// The pipeline is a total function over its clamped domain. It performs no
// I/O, never fails, and must be fed rows strictly in input order. It is not
// safe for concurrent use.
package control
