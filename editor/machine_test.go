package editor

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Paranoid-AF/ashell/complete"
	"github.com/Paranoid-AF/ashell/history"
)

type names []string

func (n names) Matches(prefix string) []string {
	var out []string
	for _, s := range n {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func typeText(m *Machine, s string) {
	for _, r := range s {
		m.Handle(Key{Kind: KeyRune, Rune: r})
	}
}

func press(m *Machine, kinds ...KeyKind) Effect {
	var eff Effect
	for _, k := range kinds {
		eff = m.Handle(Key{Kind: k})
	}
	return eff
}

func TestMachineEditing(t *testing.T) {
	c := qt.New(t)
	m := NewMachine(nil, nil)
	m.Start()

	typeText(m, "ecoh")
	c.Assert(m.Line(), qt.Equals, "ecoh")
	c.Assert(m.Cursor(), qt.Equals, 4)

	press(m, KeyBackspace, KeyBackspace)
	typeText(m, "ho")
	c.Assert(m.Line(), qt.Equals, "echo")

	press(m, KeyHome)
	c.Assert(m.Cursor(), qt.Equals, 0)
	press(m, KeyBackspace)
	c.Assert(m.Line(), qt.Equals, "echo")

	press(m, KeyRight, KeyDelete)
	c.Assert(m.Line(), qt.Equals, "eho")
	typeText(m, "c")
	c.Assert(m.Line(), qt.Equals, "echo")
	c.Assert(m.Tail(), qt.Equals, 2)

	press(m, KeyEnd, KeyDelete)
	c.Assert(m.Line(), qt.Equals, "echo")
	press(m, KeyLeft)
	c.Assert(m.Cursor(), qt.Equals, 3)

	press(m, KeyClearLine)
	c.Assert(m.Line(), qt.Equals, "")
	c.Assert(m.State(), qt.Equals, Composing)
}

func TestMachineMultibyte(t *testing.T) {
	m := NewMachine(nil, nil)
	m.Start()
	typeText(m, "héllo")
	press(m, KeyLeft, KeyLeft, KeyLeft, KeyBackspace)
	qt.Assert(t, m.Line(), qt.Equals, "hllo")
	qt.Assert(t, m.Cursor(), qt.Equals, 1)
}

func TestMachineTerminalStates(t *testing.T) {
	tests := []struct {
		key  KeyKind
		want State
		line string
	}{
		{KeyEnter, Committed, "ls"},
		{KeyInterrupt, Interrupted, ""},
		{KeyEOF, Ended, "ls"},
	}
	for _, tt := range tests {
		m := NewMachine(nil, nil)
		m.Start()
		typeText(m, "ls")
		m.Handle(Key{Kind: tt.key})
		if m.State() != tt.want {
			t.Errorf("%v: state %v, want %v", tt.key, m.State(), tt.want)
		}
		if m.Line() != tt.line {
			t.Errorf("%v: line %q, want %q", tt.key, m.Line(), tt.line)
		}
		// Further keys are ignored once the line is done.
		typeText(m, "x")
		if m.Line() != tt.line {
			t.Errorf("%v: line changed to %q after done", tt.key, m.Line())
		}
	}
}

func TestMachineCompletionUnique(t *testing.T) {
	m := NewMachine(complete.New([]string{"echo", "exit"}, nil), nil)
	m.Start()
	typeText(m, "ec")

	eff := press(m, KeyTab)
	qt.Assert(t, eff, qt.DeepEquals, Effect{Redraw: true})
	qt.Assert(t, m.Line(), qt.Equals, "echo ")
	qt.Assert(t, m.Cursor(), qt.Equals, 5)
}

func TestMachineCompletionNone(t *testing.T) {
	m := NewMachine(complete.New([]string{"echo"}, nil), nil)
	m.Start()
	typeText(m, "zz")
	qt.Assert(t, press(m, KeyTab), qt.DeepEquals, Effect{Bell: true})
	qt.Assert(t, m.Line(), qt.Equals, "zz")
}

func TestMachineCompletionAmbiguous(t *testing.T) {
	c := qt.New(t)
	m := NewMachine(complete.New(nil, names{"xyz_foo", "xyz_foo_bar", "xyz_foo_bar_baz"}), nil)
	m.Start()
	typeText(m, "xyz_")

	eff := press(m, KeyTab)
	c.Assert(eff, qt.DeepEquals, Effect{Redraw: true, Bell: true})
	c.Assert(m.Line(), qt.Equals, "xyz_foo")

	eff = press(m, KeyTab)
	c.Assert(eff.List, qt.DeepEquals, []string{"xyz_foo", "xyz_foo_bar", "xyz_foo_bar_baz"})
	c.Assert(m.Line(), qt.Equals, "xyz_foo")
}

func TestMachineCompletionResetByOtherKey(t *testing.T) {
	c := qt.New(t)
	m := NewMachine(complete.New(nil, names{"abc1", "abc2"}), nil)
	m.Start()
	typeText(m, "abc")

	c.Assert(press(m, KeyTab).Bell, qt.IsTrue)
	press(m, KeyLeft, KeyRight)
	eff := press(m, KeyTab)
	c.Assert(eff.List, qt.IsNil)
	c.Assert(eff.Bell, qt.IsTrue)

	eff = press(m, KeyTab)
	c.Assert(eff.List, qt.DeepEquals, []string{"abc1", "abc2"})
}

func TestMachineCompletionResetByStart(t *testing.T) {
	m := NewMachine(complete.New(nil, names{"abc1", "abc2"}), nil)
	m.Start()
	typeText(m, "abc")
	press(m, KeyTab)

	m.Start()
	typeText(m, "abc")
	qt.Assert(t, press(m, KeyTab).List, qt.IsNil)
}

func TestMachineHistoryRecall(t *testing.T) {
	c := qt.New(t)
	store := history.New()
	store.Record("echo one")
	store.Record("echo two")
	m := NewMachine(nil, store.Navigator())
	m.Start()
	typeText(m, "draft")

	press(m, KeyUp)
	c.Assert(m.Line(), qt.Equals, "echo two")
	c.Assert(m.State(), qt.Equals, Recalling)
	c.Assert(m.Cursor(), qt.Equals, len("echo two"))

	press(m, KeyUp)
	c.Assert(m.Line(), qt.Equals, "echo one")
	// Clamped at the oldest entry.
	c.Assert(press(m, KeyUp), qt.DeepEquals, Effect{})
	c.Assert(m.Line(), qt.Equals, "echo one")

	press(m, KeyDown)
	c.Assert(m.Line(), qt.Equals, "echo two")
	c.Assert(m.State(), qt.Equals, Recalling)

	press(m, KeyDown)
	c.Assert(m.Line(), qt.Equals, "")
	c.Assert(m.State(), qt.Equals, Composing)

	c.Assert(press(m, KeyDown), qt.DeepEquals, Effect{})
}

func TestMachineRecallRestartsEachLine(t *testing.T) {
	store := history.New()
	store.Record("first")
	nav := store.Navigator()
	m := NewMachine(nil, nav)

	m.Start()
	press(m, KeyUp)
	qt.Assert(t, m.Line(), qt.Equals, "first")
	press(m, KeyEnter)

	store.Record("second")
	m.Start()
	press(m, KeyUp)
	qt.Assert(t, m.Line(), qt.Equals, "second")
}

func TestMachineEditRecalledLine(t *testing.T) {
	store := history.New()
	store.Record("echo hi")
	m := NewMachine(nil, store.Navigator())
	m.Start()
	press(m, KeyUp)
	typeText(m, "!")
	press(m, KeyEnter)
	qt.Assert(t, m.Line(), qt.Equals, "echo hi!")
	qt.Assert(t, store.Entries(), qt.DeepEquals, []string{"echo hi"})
}
