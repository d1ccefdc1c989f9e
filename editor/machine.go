package editor

import (
	"github.com/Paranoid-AF/ashell/complete"
)

// State is the composition state of the line being edited.
type State int

const (
	Composing State = iota
	Recalling
	Committed
	Interrupted
	Ended
)

func (s State) String() string {
	switch s {
	case Composing:
		return "composing"
	case Recalling:
		return "recalling"
	case Committed:
		return "committed"
	case Interrupted:
		return "interrupted"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Done reports whether the state ends the current ReadLine.
func (s State) Done() bool {
	return s == Committed || s == Interrupted || s == Ended
}

// Completer resolves Tab presses. *complete.Completer implements it.
type Completer interface {
	Complete(buffer string) complete.Result
	Reset()
}

// Recaller walks previously committed lines. *history.Navigator implements
// it.
type Recaller interface {
	Up() (string, bool)
	Down() (string, bool)
	Recalling() bool
	Reset()
}

// Effect is what the screen must do after a key was handled.
type Effect struct {
	Redraw bool
	Bell   bool
	// List holds candidates to print on their own line before redrawing.
	List []string
}

// Machine is the line editing state machine. It owns the buffer and cursor
// and never touches the terminal, so it can be driven directly by tests.
type Machine struct {
	buf   []rune
	pos   int // cursor offset in runes
	state State

	completer Completer
	recaller  Recaller

	handlers map[KeyKind]func(Key) Effect
}

// NewMachine creates a Machine. Either collaborator may be nil, which
// disables completion or history recall.
func NewMachine(c Completer, r Recaller) *Machine {
	m := &Machine{completer: c, recaller: r}
	m.handlers = map[KeyKind]func(Key) Effect{
		KeyRune:      m.insert,
		KeyBackspace: m.backspace,
		KeyDelete:    m.delete,
		KeyLeft:      m.left,
		KeyRight:     m.right,
		KeyHome:      m.home,
		KeyEnd:       m.end,
		KeyClearLine: m.clearLine,
		KeyTab:       m.tab,
		KeyUp:        m.up,
		KeyDown:      m.down,
		KeyEnter:     m.enter,
		KeyInterrupt: m.interrupt,
		KeyEOF:       m.eof,
	}
	return m
}

// Start begins a new line: empty buffer, Composing, recall at the end of
// history.
func (m *Machine) Start() {
	m.buf = m.buf[:0]
	m.pos = 0
	m.state = Composing
	if m.recaller != nil {
		m.recaller.Reset()
	}
	if m.completer != nil {
		m.completer.Reset()
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Line returns the buffer contents.
func (m *Machine) Line() string { return string(m.buf) }

// Cursor returns the cursor offset in runes.
func (m *Machine) Cursor() int { return m.pos }

// Tail returns the number of runes right of the cursor.
func (m *Machine) Tail() int { return len(m.buf) - m.pos }

// Handle applies one key and reports the screen effect. Keys arriving after
// the line is done are ignored.
func (m *Machine) Handle(k Key) Effect {
	if m.state.Done() {
		return Effect{}
	}
	if k.Kind != KeyTab && m.completer != nil {
		m.completer.Reset()
	}
	h, ok := m.handlers[k.Kind]
	if !ok {
		return Effect{}
	}
	return h(k)
}

func (m *Machine) insert(k Key) Effect {
	m.buf = append(m.buf, 0)
	copy(m.buf[m.pos+1:], m.buf[m.pos:])
	m.buf[m.pos] = k.Rune
	m.pos++
	return Effect{Redraw: true}
}

func (m *Machine) backspace(Key) Effect {
	if m.pos == 0 {
		return Effect{}
	}
	m.buf = append(m.buf[:m.pos-1], m.buf[m.pos:]...)
	m.pos--
	return Effect{Redraw: true}
}

func (m *Machine) delete(Key) Effect {
	if m.pos == len(m.buf) {
		return Effect{}
	}
	m.buf = append(m.buf[:m.pos], m.buf[m.pos+1:]...)
	return Effect{Redraw: true}
}

func (m *Machine) left(Key) Effect {
	if m.pos == 0 {
		return Effect{}
	}
	m.pos--
	return Effect{Redraw: true}
}

func (m *Machine) right(Key) Effect {
	if m.pos == len(m.buf) {
		return Effect{}
	}
	m.pos++
	return Effect{Redraw: true}
}

func (m *Machine) home(Key) Effect {
	m.pos = 0
	return Effect{Redraw: true}
}

func (m *Machine) end(Key) Effect {
	m.pos = len(m.buf)
	return Effect{Redraw: true}
}

func (m *Machine) clearLine(Key) Effect {
	m.buf = m.buf[:0]
	m.pos = 0
	return Effect{Redraw: true}
}

func (m *Machine) tab(Key) Effect {
	if m.completer == nil {
		return Effect{Bell: true}
	}
	res := m.completer.Complete(string(m.buf))
	switch res.Action {
	case complete.Replace:
		m.set(res.Buffer)
		return Effect{Redraw: true}
	case complete.Ring:
		m.set(res.Buffer)
		return Effect{Redraw: true, Bell: true}
	case complete.List:
		return Effect{Redraw: true, List: res.Candidates}
	}
	return Effect{Bell: true}
}

func (m *Machine) up(Key) Effect {
	if m.recaller == nil {
		return Effect{}
	}
	line, ok := m.recaller.Up()
	if !ok {
		return Effect{}
	}
	m.set(line)
	m.state = Recalling
	return Effect{Redraw: true}
}

func (m *Machine) down(Key) Effect {
	if m.recaller == nil {
		return Effect{}
	}
	line, ok := m.recaller.Down()
	if !ok {
		return Effect{}
	}
	m.set(line)
	if m.recaller.Recalling() {
		m.state = Recalling
	} else {
		m.state = Composing
	}
	return Effect{Redraw: true}
}

func (m *Machine) enter(Key) Effect {
	m.state = Committed
	return Effect{}
}

func (m *Machine) interrupt(Key) Effect {
	m.buf = m.buf[:0]
	m.pos = 0
	m.state = Interrupted
	return Effect{}
}

func (m *Machine) eof(Key) Effect {
	m.state = Ended
	return Effect{}
}

// set replaces the buffer and moves the cursor to its end.
func (m *Machine) set(line string) {
	m.buf = append(m.buf[:0], []rune(line)...)
	m.pos = len(m.buf)
}
