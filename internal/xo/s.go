// Copyright 2024 The OtterSat Authors. All rights reserved.  Use of this
// source code is governed by a license that can be found in the License file.

package xo

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teeaychem/otter-sat/dimacs"
	"github.com/teeaychem/otter-sat/z"
)

// PropTick is the number of propagations between control polls inside a
// quiescent stretch; conflicts poll unconditionally.
const PropTick int64 = 20000

// S is the solving context: a CDCL solver over a clause arena with
// two-watched-literal propagation, 1UIP learning, VSIDS decisions, Luby
// restarts, learnt clause reduction, incremental assumptions, and a
// clause lifecycle event stream.
//
// Solve returns 1 if satisfiable, -1 if unsatisfiable, and 0 if the
// result is unknown (stopped, terminated, or out of time).  After an
// unsatisfiable result under assumptions, Why gives the failed
// assumptions.
type S struct {
	Vars   *Vars
	Cdb    *Cdb
	Trail  *Trail
	Guess  *Guess
	Driver *Deriver

	cfg  *Config
	luby *Luby

	// last conflict clause
	x z.C
	// first trivially inconsistent assumption, if any
	xLit z.Lit

	assumptLevel int
	assumes      []z.Lit
	failed       []z.Lit

	control          *Ctl
	terminate        func() bool
	deadline         time.Time
	restartStopwatch int
	sinceRestart     int
	sinceReduce      uint

	onLearn     func(ms []z.Lit)
	onFinalise  func(ev Event)
	onTerminate func(res int)

	lastResult int

	// Stats
	stRestarts  int64
	stSat       int64
	stUnsat     int64
	stEnded     int64
	stPinned    int
	stAssumes   int64
	stFailed    int64
	stConflicts int64
}

// NewS creates a solver with default configuration and a small capacity.
func NewS() *S {
	return NewSVc(NewConfig(), 128, 768)
}

// NewSC creates a solver with configuration cfg.
func NewSC(cfg *Config) *S {
	return NewSVc(cfg, 128, 768)
}

// NewSV creates a solver with a capacity hint for the number of atoms.
func NewSV(vCapHint int) *S {
	return NewSVc(NewConfig(), vCapHint, vCapHint*8)
}

// NewSVc creates a solver using capacity hints for the number of atoms
// and clauses.
func NewSVc(cfg *Config, vCapHint, cCapHint int) *S {
	vars := NewVars(vCapHint)
	cdb := NewCdb(vars, cCapHint)
	cdb.GlueStrength = uint32(cfg.GlueStrength)
	cdb.clsDecay = float32(cfg.ClauseDecay)
	guess := NewGuessCdb(cdb)
	guess.configure(cfg)
	trail := NewTrail(cdb, guess)
	drv := NewDeriver(cdb, guess, trail)
	drv.Stopping = cfg.Stopping
	drv.Vsids = cfg.Vsids
	drv.NoSubsumption = cfg.NoSubsumption
	s := &S{
		Vars:    vars,
		Cdb:     cdb,
		Trail:   trail,
		Guess:   guess,
		Driver:  drv,
		cfg:     cfg,
		luby:    NewLuby(),
		x:       z.CNull,
		xLit:    z.LitNull,
		assumes: make([]z.Lit, 0, 128),
		failed:  make([]z.Lit, 0, 8)}
	s.control = NewCtl(s)
	return s
}

// NewSDimacs creates a solver from DIMACS formatted input.
func NewSDimacs(cfg *Config, r io.Reader) (*S, error) {
	vis := &DimacsVis{Config: cfg}
	if err := dimacs.ReadCnf(r, vis); err != nil {
		return nil, err
	}
	return vis.S(), nil
}

// Config returns the solver's configuration.  Options only take effect
// at construction.
func (s *S) Config() *Config {
	return s.cfg
}

// GoSolve runs Solve in its own goroutine and returns a control.
func (s *S) GoSolve() *Ctl {
	s.control.reset()
	go func() {
		s.control.cResult <- s.Solve()
	}()
	return s.control
}

func (s *S) String() string {
	return fmt.Sprintf("<xo@%d>", s.Trail.Level)
}

// Lit returns the positive literal of a fresh atom, or z.LitNull if the
// atom space is exhausted.
func (s *S) Lit() z.Lit {
	n := s.Vars.Max + 1
	if n > z.VarMax {
		return z.LitNull
	}
	m := n.Pos()
	s.ensureLitCap(m)
	return m
}

// MaxVar returns the maximum atom added or assumed.
func (s *S) MaxVar() z.Var {
	return s.Vars.Max
}

// Add adds a literal to the clause under construction; z.LitNull
// terminates the clause.  Adding the empty clause makes the context
// permanently unsatisfiable.
func (s *S) Add(m z.Lit) {
	if m != z.LitNull {
		s.ensureLitCap(m)
		if s.Trail.Level != 0 {
			s.Trail.Back(0)
		}
	}
	s.Cdb.Add(m)
}

// Assume makes the solver assume ms for the next call to Solve.
// Assumptions are consumed by the call.
func (s *S) Assume(ms ...z.Lit) {
	for _, m := range ms {
		s.ensureLitCap(m)
	}
	s.stAssumes += int64(len(ms))
	s.assumes = append(s.assumes, ms...)
}

// Value retrieves the value of the literal m under the current
// valuation; meaningful after a satisfiable Solve.
func (s *S) Value(m z.Lit) bool {
	return s.Vars.Vals[m] == 1
}

// Why appends to ms the failed assumptions of the last unsatisfiable
// Solve: a subset of the assumptions sufficient for unsatisfiability.
// If the last Solve was not under assumptions, or was satisfiable, the
// result is ms.
func (s *S) Why(ms []z.Lit) []z.Lit {
	s.failed = ms
	if s.xLit != z.LitNull {
		s.failed = append(s.failed, s.xLit)
		s.final([]z.Lit{s.xLit})
	} else if s.x != z.CNull {
		s.final(s.Cdb.Lits(s.x, nil))
	} else {
		return ms
	}
	return s.failed
}

// Failed indicates whether assumption m participated in the last
// unsatisfiable result.
func (s *S) Failed(m z.Lit) bool {
	for _, o := range s.Why(nil) {
		if o == m {
			return true
		}
	}
	return false
}

// Refresh backjumps to the root level and drops pending assumptions,
// keeping learnt clauses and activities.  Refresh is idempotent.
func (s *S) Refresh() {
	s.Trail.Back(0)
	s.assumes = s.assumes[:0]
	s.assumptLevel = 0
	s.x = z.CNull
	s.xLit = z.LitNull
	s.failed = nil
}

// SetTerminate registers a predicate polled between conflicts; when it
// returns true, Solve promptly returns 0.
func (s *S) SetTerminate(f func() bool) {
	s.terminate = f
}

// SetLearnCallback registers a hook invoked with each learnt clause.
func (s *S) SetLearnCallback(f func(ms []z.Lit)) {
	s.onLearn = f
}

// SetAdditionCallback registers a hook invoked with each added clause.
func (s *S) SetAdditionCallback(f func(ms []z.Lit)) {
	s.Cdb.OnAddition = f
}

// SetDeletionCallback registers a hook invoked with each deleted clause.
func (s *S) SetDeletionCallback(f func(ms []z.Lit)) {
	s.Cdb.OnDeletion = f
}

// SetFixedCallback registers a hook invoked with each literal fixed at
// the root level.
func (s *S) SetFixedCallback(f func(m z.Lit)) {
	s.Cdb.OnFixed = f
}

// SetFinaliseCallback registers a hook invoked with each Final event
// after an unsatisfiable result.
func (s *S) SetFinaliseCallback(f func(ev Event)) {
	s.onFinalise = f
}

// SetTerminateCallback registers a hook invoked with the result when
// Solve returns.
func (s *S) SetTerminateCallback(f func(res int)) {
	s.onTerminate = f
}

// SetEventHandler registers the sink of the clause lifecycle stream.
func (s *S) SetEventHandler(f func(ev Event)) {
	s.Cdb.Proof.SetHandler(f)
}

// Core returns the unsatisfiable core after an unsatisfiable Solve
// without assumptions: the original clauses contributing to the empty
// clause.
func (s *S) Core() [][]z.Lit {
	return s.Cdb.Proof.Core()
}

// Who identifies the solver.
func (s *S) Who() string {
	return fmt.Sprintf("xo.S %s/%s/%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}

// Solve solves the problem under the assumptions made since the last
// call.  It returns 1 if sat, -1 if unsat, and 0 if unknown.
func (s *S) Solve() int {
	defer func() {
		s.assumes = s.assumes[:0]
		s.control.reset()
		if s.onTerminate != nil {
			s.onTerminate(s.lastResult)
		}
	}()
	if r := s.solveInit(); r != 0 {
		if r == -1 {
			s.stUnsat++
		}
		return s.finish(r)
	}
	trail := s.Trail
	guess := s.Guess
	cdb := s.Cdb
	driver := s.Driver
	aLevel := s.assumptLevel
	nxtTick := trail.Props + PropTick

	for {
		x := trail.Prop()
		if x != z.CNull {
			s.stConflicts++
			if trail.Level <= aLevel {
				s.x = x
				if aLevel == 0 {
					s.finaliseUnsat(x)
				}
				s.stUnsat++
				return s.finish(-1)
			}
			drvd := driver.Derive(x)
			target := drvd.TargetLevel
			if target < aLevel {
				target = aLevel
			}
			trail.Back(target)
			driver.ApplySubsumptions()
			if drvd.P == z.CNull {
				if s.Vars.Vals[drvd.Unit] == 0 {
					trail.AssignFact(drvd.Unit)
				}
				if s.Cdb.OnFixed != nil && target == 0 {
					s.Cdb.OnFixed(drvd.Unit)
				}
			} else if s.Vars.Vals[drvd.Unit] == 0 {
				trail.Assign(drvd.Unit, drvd.P)
			}
			if s.onLearn != nil {
				s.onLearn(drvd.Lits)
			}
			guess.Decay()
			cdb.Decay()
			if target == 0 {
				s.stPinned = trail.Tail
			}
			s.restartStopwatch--
			s.sinceRestart++
			s.sinceReduce++
			if !s.cfg.NoReduction && s.sinceReduce >= s.cfg.ReductionInterval {
				cdb.Reduce()
				cdb.MaybeCompact()
				s.sinceReduce = 0
			}
			if !s.tick() {
				s.stEnded++
				return s.finish(0)
			}
			continue
		}

		// propagation ticker
		if trail.Props > nxtTick {
			nxtTick += PropTick
			if !s.tick() {
				s.stEnded++
				return s.finish(0)
			}
		}

		// maybe restart
		if !s.cfg.NoRestart && s.restartStopwatch <= 0 && s.sinceRestart > 0 {
			trail.Back(aLevel)
			s.sinceRestart = 0
			s.stRestarts++
			s.restartStopwatch = int(s.cfg.LubyU) * int(s.luby.Next())
		}

		// guess
		m := guess.Guess(s.Vars.Vals)
		if m == z.LitNull {
			errs := cdb.CheckModel()
			if len(errs) != 0 {
				for _, e := range errs {
					logrus.Errorln(e)
				}
				logrus.Errorf("%p internal error: sat model", s)
				panic("invalid model")
			}
			s.stSat++
			// the model is kept on the trail; the next call to
			// Solve backtracks instead.
			return s.finish(1)
		}
		cdb.MaybeCompact()
		trail.Decide(m)
	}
}

func (s *S) finish(r int) int {
	s.lastResult = r
	return r
}

// solveInit prepares a Solve: it rewinds to the root, applies optional
// preprocessing, propagates the root level, and installs assumptions.
// It returns -1 if the problem is known inconsistent, 0 otherwise.
func (s *S) solveInit() int {
	s.deadline = time.Time{}
	if s.cfg.TimeLimit > 0 {
		s.deadline = time.Now().Add(s.cfg.TimeLimit)
	}
	s.luby = NewLuby()
	s.restartStopwatch = int(s.cfg.LubyU) * int(s.luby.Next())
	s.sinceRestart = 0

	s.Trail.Back(0)
	s.x = z.CNull
	s.xLit = z.LitNull
	s.failed = nil
	s.assumptLevel = 0

	if s.Cdb.Bot {
		s.Cdb.Proof.Finalise()
		s.emitFinals()
		return -1
	}
	if s.cfg.Preprocess {
		s.eliminatePure()
	}
	if x := s.Trail.Prop(); x != z.CNull {
		s.x = x
		s.finaliseUnsat(x)
		return -1
	}
	return s.makeAssumptions()
}

func (s *S) makeAssumptions() int {
	trail := s.Trail
	vals := s.Vars.Vals
	for _, m := range s.assumes {
		switch vals[m] {
		case 1:
			// already implied or assumed
		case 0:
			trail.Decide(m)
			s.assumptLevel = trail.Level
			if x := trail.Prop(); x != z.CNull {
				s.x = x
				s.stFailed++
				return -1
			}
		case -1:
			s.xLit = m
			s.stFailed++
			return -1
		}
	}
	return 0
}

// eliminatePure assigns atoms occurring with a single polarity among
// the stored clauses.  It runs once per Solve; the assignments are
// sound for satisfiability and published as axiomatic facts.
func (s *S) eliminatePure() {
	seen := make([]uint8, s.Vars.Max+1)
	const (
		pos = 1
		neg = 2
	)
	s.Cdb.Forall(func(p z.C, hd Chd, ms []z.Lit) {
		for _, m := range ms {
			if m.IsPos() {
				seen[m.Var()] |= pos
			} else {
				seen[m.Var()] |= neg
			}
		}
	})
	for u := z.Var(1); u <= s.Vars.Max; u++ {
		if s.Vars.Vals[u.Pos()] != 0 {
			continue
		}
		var m z.Lit
		switch seen[u] {
		case pos:
			m = u.Pos()
		case neg:
			m = u.Neg()
		default:
			continue
		}
		s.Cdb.Proof.FixUnit(m, nil)
		s.Trail.Assign(m, z.CNull)
		if s.Cdb.OnFixed != nil {
			s.Cdb.OnFixed(m)
		}
	}
}

// finaliseUnsat derives the empty clause from the root level conflict x
// and publishes the Final events.
func (s *S) finaliseUnsat(x z.C) {
	pf := s.Cdb.Proof
	if !pf.HasEmpty() {
		ms := s.Cdb.Lits(x, nil)
		ants := make([]uint64, 0, len(ms)+1)
		ants = append(ants, pf.ID(x))
		for _, m := range ms {
			ants = append(ants, pf.UnitID(m.Var()))
		}
		pf.EmptyFrom(ants)
	}
	s.Cdb.Bot = true
	pf.Finalise()
	s.emitFinals()
}

func (s *S) emitFinals() {
	if s.onFinalise == nil {
		return
	}
	for _, ms := range s.Cdb.Proof.Core() {
		s.onFinalise(Event{Kind: EventFinal, Lits: ms})
	}
}

// final computes the assumptions which caused the problem to be unsat
// under BCP and records them in s.failed.
func (s *S) final(ms []z.Lit) {
	marks := make([]bool, s.Vars.Max+1)
	for _, m := range ms {
		s.finalRec(m, marks)
	}
}

// finalRec walks the reasons of the falsified literal m upwards; atoms
// with no reason and no fact status are assumptions.
func (s *S) finalRec(m z.Lit, marks []bool) {
	u := m.Var()
	if marks[u] {
		return
	}
	marks[u] = true
	if s.Vars.Facts[u] || s.Vars.Levels[u] == 0 {
		return
	}
	r := s.Vars.Reasons[u]
	if r == z.CNull {
		s.failed = append(s.failed, m.Not())
		s.stFailed++
		return
	}
	D := s.Cdb.CDat.D
	for q := r; D[q] != z.LitNull; q++ {
		o := D[q]
		if o.Var() == u {
			continue
		}
		s.finalRec(o, marks)
	}
}

// tick polls the control, the terminate predicate, and the time budget.
func (s *S) tick() bool {
	if s.control.stopped() {
		return false
	}
	if s.terminate != nil && s.terminate() {
		return false
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return false
	}
	return true
}

// ReadStats reads counters into st, resetting the cumulative ones.
func (s *S) ReadStats(st *Stats) {
	st.Restarts += s.stRestarts
	s.stRestarts = 0
	st.Sat += s.stSat
	s.stSat = 0
	st.Unsat += s.stUnsat
	s.stUnsat = 0
	st.Ended += s.stEnded
	s.stEnded = 0
	st.Pinned = s.stPinned
	st.Assumptions += s.stAssumes
	s.stAssumes = 0
	st.Failed += s.stFailed
	s.stFailed = 0
	st.Conflicts += s.stConflicts
	s.stConflicts = 0
	s.Trail.readStats(st)
	s.Guess.readStats(st)
	s.Driver.readStats(st)
	s.Cdb.readStats(st)
}

// ensureLitCap grows every component when m is beyond the current
// capacity.
func (s *S) ensureLitCap(m z.Lit) {
	vars := s.Vars
	mVar := m.Var()
	top := vars.Top
	if mVar >= top {
		for top <= mVar {
			top *= 2
		}
		vars.growToVar(top)
		s.Cdb.growToVar(top)
		s.Trail.growToVar(top)
		s.Guess.growToVar(top)
		s.Driver.growToVar(top)
	}
	if mVar > vars.Max {
		for i := vars.Max + 1; i <= mVar; i++ {
			s.Guess.Push(i.Pos())
		}
		vars.Max = mVar
	}
}
