package control

import "ecusim/internal/calibration"

// Stage names in evaluation order.
const (
	StageIgnition    = "ignition"
	StageLimpMonitor = "limp_monitor"
	StageBTO         = "brake_throttle_override"
	StageBaseline    = "baseline"
	StageCruise      = "cruise"
	StageCoastdown   = "coastdown"
	StageIdle        = "idle"
	StageLimpCap     = "limp_cap"
	StageRevLimiter  = "rev_limiter"
	StageSlew        = "slew"
)

// frame carries one row through the stages.
type frame struct {
	in    RowInput // clamped
	on    bool
	prev  int // speed emitted on the previous row
	acc   int // effective accelerator angle
	speed int // provisional speed
	trace *Trace
}

// stage is one step of the pipeline. apply consumes the frame left by the
// previous stage and may update the fields of State it owns.
type stage struct {
	name  string
	apply func(cal *calibration.Config, f *frame, st *State)
}

// The limp latch is updated from raw pedals right after ignition so the
// latch set on a confirming row already caps that row; the cap itself is
// applied after idle control.
var stages = []stage{
	{StageIgnition, applyIgnition},
	{StageLimpMonitor, monitorLimp},
	{StageBTO, applyBTO},
	{StageBaseline, applyBaseline},
	{StageCruise, applyCruise},
	{StageCoastdown, applyCoastdown},
	{StageIdle, applyIdle},
	{StageLimpCap, applyLimpCap},
	{StageRevLimiter, applyRevLimiter},
	{StageSlew, applySlew},
}

// Stages returns the stage names in evaluation order.
func Stages() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

// Pipeline evaluates rows against one calibration and owns the run's State.
type Pipeline struct {
	cal   calibration.Config
	state State
	rows  int64
}

// New creates a pipeline with cleared state. The calibration is copied and
// normalized, so later changes to cal do not affect the run.
func New(cal calibration.Config) *Pipeline {
	cal.Normalize()
	return &Pipeline{cal: cal}
}

// Calibration returns the normalized calibration in use.
func (p *Pipeline) Calibration() calibration.Config {
	return p.cal
}

// State returns a copy of the persistent state after the last Step.
func (p *Pipeline) State() State {
	return p.state
}

// Step evaluates one row and advances the persistent state.
func (p *Pipeline) Step(in RowInput) (RowOutput, Trace) {
	var trace Trace
	f := frame{
		in:    in.Clamped(),
		prev:  p.state.LastSpeed,
		trace: &trace,
	}
	for _, s := range stages {
		s.apply(&p.cal, &f, &p.state)
	}

	t := p.rows
	if in.HasTime {
		t = in.Time
	}
	p.rows++

	out := RowOutput{Time: t, EngineSpeed: p.state.LastSpeed}
	if f.on {
		out.EngineState = 1
	}
	return out, trace
}

// Run evaluates rows in order and returns one output per row.
func (p *Pipeline) Run(rows []RowInput) []RowOutput {
	out := make([]RowOutput, 0, len(rows))
	for _, row := range rows {
		res, _ := p.Step(row)
		out = append(out, res)
	}
	return out
}
