package hostio

import (
	"bufio"
	"io"
	"os"
	"sync/atomic"

	"mcubasic/basic"
)

// Console runs a single background goroutine that owns stdin
// exclusively, the same division of labor as a UART driver: nothing
// else in the process is allowed to read from os.Stdin while a
// Console is live. Bytes it reads are buffered in a bounded,
// non-blocking channel; INKEYRegister's getter drains one without
// ever blocking the interpreter waiting on input that hasn't arrived.
type Console struct {
	buf    *nonBlockingChan[byte]
	out    io.Writer
	closed atomic.Bool
}

// NewConsole starts the background reader and returns a Console
// writing PRINT output to out.
func NewConsole(out io.Writer) *Console {
	c := &Console{buf: newNonBlockingChan[byte](64), out: out}
	go c.readLoop()
	return c
}

func (c *Console) readLoop() {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if c.closed.Load() {
			return
		}
		c.buf.send(b) // a full buffer just drops the byte; BASIC polls INKEY again
	}
}

// Close stops accepting new reads. The background goroutine exits on
// its next stdin read once the process itself is tearing down; there
// is no way to unblock a pending os.Stdin.Read short of that.
func (c *Console) Close() { c.closed.Store(true) }

// Write implements io.Writer so a Console can be passed straight to
// Interpreter.SetOutput.
func (c *Console) Write(p []byte) (int, error) { return c.out.Write(p) }

// INKEYRegister returns a read-only Register named INKEY whose getter
// returns the next buffered input byte as an integer, or 0 if none has
// arrived yet. It never blocks.
func (c *Console) INKEYRegister() *basic.Register {
	return &basic.Register{
		Name: "INKEY",
		Getter: func(any) (basic.Instr, error) {
			b, ok := c.buf.tryReceive()
			if !ok {
				return basic.NewIntCell(0), nil
			}
			return basic.NewIntCell(int32(b)), nil
		},
	}
}
