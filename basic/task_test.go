package basic

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepSuspendsTaskWithoutBlockingSteps(t *testing.T) {
	var svcs ServiceTable
	svcs.Add(NewSleepService())

	src := "SLEEP(50)\nPRINT \"done\"\n"
	prog, err := Compile(NewStringSource(src), nil, &svcs, Options{})
	require.NoError(t, err)

	var out bytes.Buffer
	vm := prog.NewInterpreter()
	vm.SetOutput(&out)

	more, err := vm.Task(10 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, more)
	assert.True(t, vm.Sleeping())
	assert.Empty(t, out.String())

	for vm.Sleeping() {
		more, err = vm.Task(10 * time.Millisecond)
		require.NoError(t, err)
		assert.True(t, more)
	}

	for more {
		more, err = vm.Task(10 * time.Millisecond)
		require.NoError(t, err)
	}

	assert.Equal(t, "done\n", out.String())
}

func TestTaskReturnsRuntimeErrorWithoutPanicking(t *testing.T) {
	src := strings.Join([]string{
		"DIM ARR(1)",
		"PRINT ARR(5);",
	}, "\n") + "\n"

	prog, err := Compile(NewStringSource(src), nil, nil, Options{})
	require.NoError(t, err)

	vm := prog.NewInterpreter()
	vm.SetOutput(&bytes.Buffer{})

	more, err := vm.Task(10 * time.Millisecond)
	require.Error(t, err)
	assert.False(t, more)
	assert.Equal(t, KindIndexOutOfBounds, KindOf(err))
}

func TestTaskEndsNormallyWithNoSleep(t *testing.T) {
	prog, err := Compile(NewStringSource("PRINT 1;\n"), nil, nil, Options{})
	require.NoError(t, err)

	vm := prog.NewInterpreter()
	var out bytes.Buffer
	vm.SetOutput(&out)

	var more bool
	for {
		more, err = vm.Task(10 * time.Millisecond)
		require.NoError(t, err)
		if !more {
			break
		}
	}
	assert.Equal(t, "1", out.String())
	assert.False(t, vm.Sleeping())
}
