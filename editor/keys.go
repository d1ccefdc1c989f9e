package editor

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

// KeyKind classifies a decoded key press.
type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyRune
	KeyBackspace
	KeyDelete
	KeyTab
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyClearLine
	KeyInterrupt
	KeyEOF
)

var kindNames = [...]string{
	KeyUnknown:   "unknown",
	KeyRune:      "rune",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyTab:       "tab",
	KeyEnter:     "enter",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyClearLine: "clear-line",
	KeyInterrupt: "interrupt",
	KeyEOF:       "eof",
}

func (k KeyKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Key is one decoded key press. Rune is set only for KeyRune.
type Key struct {
	Kind KeyKind
	Rune rune
}

// controlKeys maps single control bytes to keys.
var controlKeys = map[byte]KeyKind{
	1:   KeyHome,      // Ctrl-A
	3:   KeyInterrupt, // Ctrl-C
	4:   KeyEOF,       // Ctrl-D
	5:   KeyEnd,       // Ctrl-E
	8:   KeyBackspace, // Ctrl-H
	9:   KeyTab,
	10:  KeyEnter,
	13:  KeyEnter,
	21:  KeyClearLine, // Ctrl-U
	127: KeyBackspace,
}

// csiFinal maps the final byte of "ESC [ x" and "ESC O x" to keys.
var csiFinal = map[byte]KeyKind{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

// csiTilde maps the numeric parameter of "ESC [ n ~" to keys.
var csiTilde = map[string]KeyKind{
	"1": KeyHome,
	"3": KeyDelete,
	"4": KeyEnd,
	"7": KeyHome,
	"8": KeyEnd,
}

// KeyReader decodes raw terminal bytes into keys.
type KeyReader struct {
	r *bufio.Reader
}

// NewKeyReader returns a KeyReader over r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// ReadKey blocks until one key has been decoded. Bytes that form no known key
// decode as KeyUnknown. At end of input it returns io.EOF.
func (k *KeyReader) ReadKey() (Key, error) {
	b, err := k.r.ReadByte()
	if err != nil {
		return Key{}, err
	}
	if b == 27 {
		return k.readEscape()
	}
	if kind, ok := controlKeys[b]; ok {
		return Key{Kind: kind}, nil
	}
	if b < utf8.RuneSelf {
		if b < 32 {
			return Key{Kind: KeyUnknown}, nil
		}
		return Key{Kind: KeyRune, Rune: rune(b)}, nil
	}

	if err := k.r.UnreadByte(); err != nil {
		return Key{}, err
	}
	r, size, err := k.r.ReadRune()
	if err != nil {
		return Key{}, err
	}
	if (r == utf8.RuneError && size == 1) || !unicode.IsPrint(r) {
		return Key{Kind: KeyUnknown}, nil
	}
	return Key{Kind: KeyRune, Rune: r}, nil
}

// readEscape decodes the rest of an escape sequence.
func (k *KeyReader) readEscape() (Key, error) {
	intro, err := k.r.ReadByte()
	if err != nil {
		return Key{Kind: KeyUnknown}, nil
	}
	if intro != '[' && intro != 'O' {
		return Key{Kind: KeyUnknown}, nil
	}

	var param []byte
	for {
		b, err := k.r.ReadByte()
		if err != nil {
			return Key{Kind: KeyUnknown}, nil
		}
		switch {
		case b >= '0' && b <= '9' || b == ';':
			param = append(param, b)
			continue
		case b == '~':
			if kind, ok := csiTilde[string(param)]; ok {
				return Key{Kind: kind}, nil
			}
			return Key{Kind: KeyUnknown}, nil
		}
		if kind, ok := csiFinal[b]; ok {
			return Key{Kind: kind}, nil
		}
		return Key{Kind: KeyUnknown}, nil
	}
}
