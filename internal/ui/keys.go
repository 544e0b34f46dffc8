package ui

import (
	"fmt"
	"strings"

	"github.com/derailed/tcell/v2"
)

// Printable keys are mapped onto their rune value.
const (
	KeyA tcell.Key = iota + 97
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

// Shifted keys.
const (
	KeyShiftA tcell.Key = iota + 65
	KeyShiftB
	KeyShiftC
	KeyShiftD
	KeyShiftE
	KeyShiftF
	KeyShiftG
	KeyShiftH
	KeyShiftI
	KeyShiftJ
	KeyShiftK
	KeyShiftL
	KeyShiftM
	KeyShiftN
	KeyShiftO
	KeyShiftP
	KeyShiftQ
	KeyShiftR
	KeyShiftS
	KeyShiftT
	KeyShiftU
	KeyShiftV
	KeyShiftW
	KeyShiftX
	KeyShiftY
	KeyShiftZ
)

// Punctuation keys.
const (
	KeySpace tcell.Key = 32
	KeySlash tcell.Key = 47
	KeyColon tcell.Key = 58
	KeyQm    tcell.Key = 63
)

// AsKey maps a keyboard event to the key its action is bound to.
func AsKey(evt *tcell.EventKey) tcell.Key {
	if evt.Key() != tcell.KeyRune {
		return evt.Key()
	}
	return tcell.Key(evt.Rune())
}

// KeyName returns a display name for a key.
func KeyName(k tcell.Key) string {
	if n, ok := tcell.KeyNames[k]; ok {
		return n
	}
	if k >= KeyShiftA && k <= KeyShiftZ {
		return "Shift-" + string(rune(k))
	}
	return string(rune(k))
}

// ParseKey converts a hotkey short cut such as Shift-U, Ctrl-G, F2 or x into
// a key.
func ParseKey(s string) (tcell.Key, error) {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) == 1 && r[0] > 32 && r[0] < 127 {
		return tcell.Key(r[0]), nil
	}
	if c, ok := strings.CutPrefix(strings.ToLower(s), "shift-"); ok && len(c) == 1 && c[0] >= 'a' && c[0] <= 'z' {
		return KeyShiftA + tcell.Key(c[0]-'a'), nil
	}
	for k, n := range tcell.KeyNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("invalid key %q", s)
}
