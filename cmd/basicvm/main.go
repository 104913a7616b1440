// Command basicvm compiles and runs one BASIC source file to
// completion, driving the runtime the way a host's scheduler tick
// would: repeated bounded Task calls rather than one unbounded Run.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"mcubasic/basic"
	"mcubasic/internal/hostio"
)

func main() {
	debug := flag.Bool("debug", false, "disassemble the compiled program and dump interpreter state each time slice")
	slice := flag.Duration("slice", 20*time.Millisecond, "wall-clock budget per scheduler tick")
	tick := flag.Duration("tick", time.Second, "period of the $TICKS register's clock")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: basicvm [-debug] [-slice dur] [-tick dur] <file.bas>")
		os.Exit(1)
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	host := hostio.NewHost(os.Stdout, *tick)
	defer host.Shutdown()

	var regs basic.RegisterTable
	regs.Add(host.Console.INKEYRegister())
	regs.Add(host.Clock.TICKSRegister())

	var svcs basic.ServiceTable
	svcs.Add(basic.NewSleepService())

	prog, err := basic.Compile(basic.NewStringSource(string(src)), &regs, &svcs, basic.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile error:", err)
		os.Exit(1)
	}

	if *debug {
		basic.Disassemble(os.Stdout, prog.Code)
	}

	vm := prog.NewInterpreter()
	vm.SetOutput(host.Console)

	for {
		more, err := vm.Task(*slice)
		if err != nil {
			fmt.Fprintln(os.Stderr, "runtime error:", err)
			if *debug {
				vm.DumpState(os.Stderr)
			}
			os.Exit(2)
		}
		if !more {
			break
		}
		if *debug {
			vm.DumpState(os.Stderr)
		}
	}
}
