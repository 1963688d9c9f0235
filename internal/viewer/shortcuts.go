package viewer

import (
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/cropmask/internal/tools"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

type action int

const (
	actionNone action = iota
	actionTool
	actionUndo
	actionRedo
	actionExport
	actionReset
	actionCopy
	actionCopyRect
	actionBrushDown
	actionBrushUp
	actionQuit
)

type binding struct {
	action action
	tool   tools.Name
}

var bindings = map[KeyShortcut]binding{
	{Rune: 'p'}: {actionTool, tools.Polygon},
	{Rune: 'r'}: {actionTool, tools.Rect},
	{Rune: 's'}: {actionTool, tools.Square},
	{Rune: 'b'}: {actionTool, tools.Pencil},
	{Rune: 'e'}: {actionTool, tools.Eraser},
	{Rune: 'v'}: {actionTool, tools.Select},
	{Rune: '['}: {action: actionBrushDown},
	{Rune: ']'}: {action: actionBrushUp},
	{Rune: 'q'}: {action: actionQuit},

	{Rune: 'z', Modifiers: key.ModControl}:                {action: actionUndo},
	{Rune: 'y', Modifiers: key.ModControl}:                {action: actionRedo},
	{Rune: 'z', Modifiers: key.ModControl | key.ModShift}: {action: actionRedo},
	{Rune: 'c', Modifiers: key.ModControl}:                {action: actionCopy},
	{Rune: 'c', Modifiers: key.ModControl | key.ModShift}: {action: actionCopyRect},
	{Code: key.CodeReturnEnter}:                           {action: actionExport},
	{Code: key.CodeKeypadEnter}:                           {action: actionExport},
	{Code: key.CodeEscape}:                                {action: actionReset},
}

// lookup resolves a key press. Named keys match on their code, printable
// keys on their lower-cased rune.
func lookup(e key.Event) (binding, bool) {
	if e.Direction != key.DirPress {
		return binding{}, false
	}
	mods := e.Modifiers & (key.ModControl | key.ModShift)
	if b, ok := bindings[KeyShortcut{Code: e.Code, Modifiers: mods}]; ok && e.Code != key.CodeUnknown {
		return b, true
	}
	r := e.Rune
	if r <= 0 && mods&key.ModControl != 0 {
		r = runeForCode(e.Code)
	}
	b, ok := bindings[KeyShortcut{Rune: unicode.ToLower(r), Modifiers: mods}]
	return b, ok
}

// runeForCode recovers the letter for control chords, which some drivers
// deliver without a rune.
func runeForCode(c key.Code) rune {
	if c >= key.CodeA && c <= key.CodeZ {
		return 'a' + rune(c-key.CodeA)
	}
	return -1
}
