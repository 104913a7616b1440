package basic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSource(t *testing.T, src string, regs *RegisterTable, svcs *ServiceTable) (string, error) {
	t.Helper()
	prog, err := Compile(NewStringSource(src), regs, svcs, Options{})
	require.NoError(t, err)

	var out bytes.Buffer
	vm := prog.NewInterpreter()
	vm.SetOutput(&out)
	err = vm.Run(100000)
	return out.String(), err
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "print arithmetic",
			src:  "PRINT 1 + 2;\n",
			want: "3",
		},
		{
			name: "print appends host EOL without trailing semicolon",
			src:  "PRINT 41 + 1\n",
			want: "42\n",
		},
		{
			name: "do while loop",
			src: strings.Join([]string{
				"DIM I = 0",
				"DIM TOTAL = 0",
				"DO WHILE I < 5",
				"TOTAL = TOTAL + I",
				"I = I + 1",
				"LOOP",
				"PRINT TOTAL;",
			}, "\n") + "\n",
			want: "10",
		},
		{
			name: "for loop with step",
			src: strings.Join([]string{
				"DIM TOTAL = 0",
				"FOR I = 10 TO 0 STEP -2",
				"TOTAL = TOTAL + I",
				"NEXT",
				"PRINT TOTAL;",
			}, "\n") + "\n",
			want: "30",
		},
		{
			name: "sub call with arithmetic result",
			src: strings.Join([]string{
				"SUB DOUBLE(N)",
				"RETURN N * 2",
				"END SUB",
				"DIM X = DOUBLE(21)",
				"PRINT X;",
			}, "\n") + "\n",
			want: "42",
		},
		{
			name: "goto skips a statement",
			src: strings.Join([]string{
				"GOTO SKIP",
				"PRINT 1;",
				"SKIP:",
				"PRINT 2;",
			}, "\n") + "\n",
			want: "2",
		},
		{
			name: "division always yields a float",
			src:  "PRINT 3 / 2;\n",
			want: "1.5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := runSource(t, tc.src, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestArrayIndexOutOfBoundsIsARuntimeError(t *testing.T) {
	src := strings.Join([]string{
		"DIM ARR(3)",
		"ARR(0) = 1",
		"ARR(1) = 2",
		"ARR(2) = 3",
		"PRINT ARR(3);",
	}, "\n") + "\n"

	_, err := runSource(t, src, nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindIndexOutOfBounds, KindOf(err))
}

func TestSingleLineIfRejectsElse(t *testing.T) {
	src := "IF 1 THEN X = 1 ELSE X = 2\n"
	_, err := Compile(NewStringSource(src), nil, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, KindExpectedNewline, KindOf(err))
}

func TestOptionExplicitRejectsUndeclaredVariable(t *testing.T) {
	src := strings.Join([]string{
		"OPTION EXPLICIT ON",
		"X = 1",
	}, "\n") + "\n"
	_, err := Compile(NewStringSource(src), nil, nil, Options{})
	require.Error(t, err)
	assert.Equal(t, KindVarUndefined, KindOf(err))
}

func TestRegisterReadWrite(t *testing.T) {
	var got Instr
	var regs RegisterTable
	regs.Add(&Register{
		Name:   "TEMP",
		Getter: func(any) (Instr, error) { return NewIntCell(72), nil },
		Setter: func(_ any, v Instr) error { got = v; return nil },
	})

	src := strings.Join([]string{
		"$TEMP = 5",
		"PRINT $TEMP;",
	}, "\n") + "\n"

	out, err := runSource(t, src, &regs, nil)
	require.NoError(t, err)
	assert.Equal(t, "72", out)
	assert.Equal(t, int32(5), asInt(got))
}

func TestServiceCallInvokesHostFunction(t *testing.T) {
	var svcs ServiceTable
	svcs.Add(&Service{
		Name: "DOUBLE",
		Argc: 1,
		Fn: func(ret *Instr, args []Instr, base []Instr) error {
			*ret = NewIntCell(asInt(args[0]) * 2)
			return nil
		},
	})

	src := "PRINT DOUBLE(21);\n"
	out, err := runSource(t, src, nil, &svcs)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

// TestVariableAfterCallWithArgsGetsCorrectSlot exercises a multi-arg
// SUB call followed by further DIMs in the same scope, the sequence
// that depends on a call site collapsing its compile-time stack depth
// tracking back to a single result cell once the call returns.
func TestVariableAfterCallWithArgsGetsCorrectSlot(t *testing.T) {
	src := strings.Join([]string{
		"SUB ADD(A, B)",
		"RETURN A + B",
		"END SUB",
		"DIM X = ADD(2, 3)",
		"DIM Y = 100",
		"PRINT X; \",\"; Y;",
	}, "\n") + "\n"

	out, err := runSource(t, src, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "5,100", out)
}

// TestSubBodyLocalDoesNotClobberLabelCell guards against a DIM inside
// a SUB body addressing the LABEL cell RETURN needs at fp+0.
func TestSubBodyLocalDoesNotClobberLabelCell(t *testing.T) {
	src := strings.Join([]string{
		"SUB F(N)",
		"DIM T = N + 1",
		"RETURN T",
		"END SUB",
		"PRINT F(5);",
	}, "\n") + "\n"

	out, err := runSource(t, src, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "6", out)
}

// TestExitForPopsHiddenLocals guards against EXIT FOR jumping over the
// POP that collapses the induction variable and the three hidden
// locals (limit, step, stepNonNeg), which would leave the runtime sp
// four cells higher than every address emitted after the loop assumes.
func TestExitForPopsHiddenLocals(t *testing.T) {
	src := strings.Join([]string{
		"DIM TOTAL = 0",
		"FOR I = 1 TO 10",
		"IF I = 4 THEN EXIT FOR",
		"TOTAL = TOTAL + I",
		"NEXT",
		"DIM AFTER = 99",
		"PRINT TOTAL; \",\"; AFTER;",
	}, "\n") + "\n"

	out, err := runSource(t, src, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "6,99", out)
}

// TestExitDoPopsLoopLocals is the DO-loop analogue of
// TestExitForPopsHiddenLocals: a local DIMed inside the loop body must
// still be popped on the EXIT DO path.
func TestExitDoPopsLoopLocals(t *testing.T) {
	src := strings.Join([]string{
		"DIM I = 0",
		"DO WHILE I < 10",
		"DIM SQUARE = I * I",
		"IF SQUARE > 10 THEN EXIT DO",
		"I = I + 1",
		"LOOP",
		"DIM AFTER = 99",
		"PRINT I; \",\"; AFTER;",
	}, "\n") + "\n"

	out, err := runSource(t, src, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "4,99", out)
}
