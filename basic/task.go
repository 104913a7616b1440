package basic

import "time"

// sleepMS and the interval-bounded Task loop implement a cooperative
// scheduling contract: a host with no preemptive threads drives
// execution in bounded slices, and an explicit SLEEP service can
// suspend a program for a duration without blocking the host's own
// event loop.

// Sleep sets the number of milliseconds Task should let elapse before
// resuming Step calls. It's exposed so a SLEEP service (see
// NewSleepService) can suspend the program without the interpreter ever
// blocking inside a single Step.
func (vm *Interpreter) Sleep(ms int32) {
	if ms < 0 {
		ms = 0
	}
	vm.sleepMS += ms
}

// Sleeping reports whether the program is still waiting out a SLEEP.
func (vm *Interpreter) Sleeping() bool { return vm.sleepMS > 0 }

// SleepServiceName is the conventional name a host registers the
// sleep service under with NewSleepService, and the name the demo
// driver's BASIC programs call it by.
const SleepServiceName = "SLEEP"

// NewSleepService builds a one-argument Service placeholder named
// SLEEP with no Fn attached yet. The host adds it to its ServiceTable
// before Compile, the same as any other service, so call sites
// resolve and arity-check normally; NewInterpreter then binds Fn to
// that interpreter's own sleep counter. A service added this way is
// unusable (Fn is nil) until an Interpreter is built over the table
// it lives in.
func NewSleepService() *Service {
	return &Service{Name: SleepServiceName, Argc: 1}
}

// bindSleepService finds a SLEEP placeholder installed via
// NewSleepService and wires it to this interpreter's sleep counter.
// It's a no-op if the host never registered one.
func (vm *Interpreter) bindSleepService() {
	if vm.svcs == nil {
		return
	}
	idx, ok := vm.svcs.Lookup(SleepServiceName)
	if !ok {
		return
	}
	svc := vm.svcs.At(idx)
	if svc == nil || svc.Fn != nil {
		return
	}
	svc.Fn = func(ret *Instr, args []Instr, base []Instr) error {
		vm.Sleep(asInt(args[0]))
		*ret = Instr{Op: OpZero}
		return nil
	}
}

// Task drives Step in a loop for up to budget wall-clock time,
// honoring any pending SLEEP, and reports whether the program has
// more work left to do. It returns (true, nil) if the time slice
// elapsed or a sleep is still draining with steps remaining, (false,
// nil) once CMD_END is reached, and (false, err) on a runtime error -
// the same three-way outcome a host's scheduler tick needs to decide
// whether to call Task again.
//
// Suspension only ever happens at instruction boundaries: Task itself
// never blocks past its own deadline, it simply returns control to
// the host, which is expected to call Task again on its own schedule
// (e.g. once per timer tick) - pc, sp, fp and the sleep counter all
// survive across calls untouched.
func (vm *Interpreter) Task(budget time.Duration) (bool, error) {
	deadline := time.Now().Add(budget)
	for vm.running {
		if vm.sleepMS > 0 {
			elapsedMS := int32(budget / time.Millisecond)
			if elapsedMS <= 0 {
				elapsedMS = 1
			}
			vm.sleepMS -= elapsedMS
			return true, nil
		}
		if err := vm.Step(); err != nil {
			if KindOf(err) == KindNormalEnd {
				return false, nil
			}
			return false, err
		}
		if time.Now().After(deadline) {
			return true, nil
		}
	}
	return false, nil
}
