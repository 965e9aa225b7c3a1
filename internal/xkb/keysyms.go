package xkb

import "github.com/bnema/wlwindow/event"

// Keysym values used by the translation tables.
const (
	KeyBackSpace  uint32 = 0xff08
	KeyTab        uint32 = 0xff09
	KeyReturn     uint32 = 0xff0d
	KeyPause      uint32 = 0xff13
	KeyScrollLock uint32 = 0xff14
	KeyEscape     uint32 = 0xff1b
	KeyHome       uint32 = 0xff50
	KeyLeft       uint32 = 0xff51
	KeyUp         uint32 = 0xff52
	KeyRight      uint32 = 0xff53
	KeyDown       uint32 = 0xff54
	KeyPageUp     uint32 = 0xff55
	KeyPageDown   uint32 = 0xff56
	KeyEnd        uint32 = 0xff57
	KeyPrint      uint32 = 0xff61
	KeyInsert     uint32 = 0xff63
	KeyMenu       uint32 = 0xff67
	KeyNumLock    uint32 = 0xff7f
	KeyKPSpace    uint32 = 0xff80
	KeyKPEnter    uint32 = 0xff8d
	KeyKPHome     uint32 = 0xff95
	KeyKPLeft     uint32 = 0xff96
	KeyKPUp       uint32 = 0xff97
	KeyKPRight    uint32 = 0xff98
	KeyKPDown     uint32 = 0xff99
	KeyKPPageUp   uint32 = 0xff9a
	KeyKPPageDown uint32 = 0xff9b
	KeyKPEnd      uint32 = 0xff9c
	KeyKPBegin    uint32 = 0xff9d
	KeyKPInsert   uint32 = 0xff9e
	KeyKPDelete   uint32 = 0xff9f
	KeyKPMultiply uint32 = 0xffaa
	KeyKPAdd      uint32 = 0xffab
	KeyKPSubtract uint32 = 0xffad
	KeyKPDecimal  uint32 = 0xffae
	KeyKPDivide   uint32 = 0xffaf
	KeyKP0        uint32 = 0xffb0
	KeyKP9        uint32 = 0xffb9
	KeyKPEqual    uint32 = 0xffbd
	KeyF1         uint32 = 0xffbe
	KeyF25        uint32 = 0xffd6
	KeyShiftL     uint32 = 0xffe1
	KeyShiftR     uint32 = 0xffe2
	KeyControlL   uint32 = 0xffe3
	KeyControlR   uint32 = 0xffe4
	KeyCapsLock   uint32 = 0xffe5
	KeyMetaL      uint32 = 0xffe7
	KeyMetaR      uint32 = 0xffe8
	KeyAltL       uint32 = 0xffe9
	KeyAltR       uint32 = 0xffea
	KeySuperL     uint32 = 0xffeb
	KeySuperR     uint32 = 0xffec
	KeyDelete     uint32 = 0xffff
	KeyLevel3     uint32 = 0xfe03
	KeyModeSwitch uint32 = 0xff7e
)

var specialKeys = map[uint32]event.KeyCode{
	KeyBackSpace:  event.KeyBackspace,
	KeyTab:        event.KeyTab,
	KeyReturn:     event.KeyEnter,
	KeyPause:      event.KeyPause,
	KeyScrollLock: event.KeyScrollLock,
	KeyEscape:     event.KeyEscape,
	KeyHome:       event.KeyHome,
	KeyLeft:       event.KeyLeft,
	KeyUp:         event.KeyUp,
	KeyRight:      event.KeyRight,
	KeyDown:       event.KeyDown,
	KeyPageUp:     event.KeyPageUp,
	KeyPageDown:   event.KeyPageDown,
	KeyEnd:        event.KeyEnd,
	KeyPrint:      event.KeyPrintScreen,
	KeyInsert:     event.KeyInsert,
	KeyMenu:       event.KeyMenu,
	KeyNumLock:    event.KeyNumLock,
	KeyKPEnter:    event.KeyKpEnter,
	KeyKPHome:     event.KeyKp7,
	KeyKPLeft:     event.KeyKp4,
	KeyKPUp:       event.KeyKp8,
	KeyKPRight:    event.KeyKp6,
	KeyKPDown:     event.KeyKp2,
	KeyKPPageUp:   event.KeyKp9,
	KeyKPPageDown: event.KeyKp3,
	KeyKPEnd:      event.KeyKp1,
	KeyKPBegin:    event.KeyKp5,
	KeyKPInsert:   event.KeyKp0,
	KeyKPDelete:   event.KeyKpDecimal,
	KeyKPMultiply: event.KeyKpMultiply,
	KeyKPAdd:      event.KeyKpAdd,
	KeyKPSubtract: event.KeyKpSubtract,
	KeyKPDecimal:  event.KeyKpDecimal,
	KeyKPDivide:   event.KeyKpDivide,
	KeyKPEqual:    event.KeyKpEqual,
	KeyShiftL:     event.KeyLeftShift,
	KeyShiftR:     event.KeyRightShift,
	KeyControlL:   event.KeyLeftControl,
	KeyControlR:   event.KeyRightControl,
	KeyCapsLock:   event.KeyCapsLock,
	KeyMetaL:      event.KeyLeftAlt,
	KeyMetaR:      event.KeyRightAlt,
	KeyAltL:       event.KeyLeftAlt,
	KeyAltR:       event.KeyRightAlt,
	KeySuperL:     event.KeyLeftSuper,
	KeySuperR:     event.KeyRightSuper,
	KeyDelete:     event.KeyDelete,
	KeyLevel3:     event.KeyRightAlt,
	KeyModeSwitch: event.KeyRightAlt,
}

var printableKeys = map[rune]event.KeyCode{
	' ':  event.KeySpace,
	'\'': event.KeyApostrophe,
	',':  event.KeyComma,
	'-':  event.KeyMinus,
	'.':  event.KeyPeriod,
	'/':  event.KeySlash,
	';':  event.KeySemicolon,
	'=':  event.KeyEqual,
	'[':  event.KeyLeftBracket,
	'\\': event.KeyBackslash,
	']':  event.KeyRightBracket,
	'`':  event.KeyGraveAccent,
	'<':  event.KeyWorld1,
}

// KeyCodeFromKeysym maps a keysym to a layout-independent key code.
// Letters map regardless of case.
func KeyCodeFromKeysym(sym uint32) event.KeyCode {
	switch {
	case sym >= 'a' && sym <= 'z':
		return event.KeyA + event.KeyCode(sym-'a')
	case sym >= 'A' && sym <= 'Z':
		return event.KeyA + event.KeyCode(sym-'A')
	case sym >= '0' && sym <= '9':
		return event.Key0 + event.KeyCode(sym-'0')
	case sym >= KeyF1 && sym <= KeyF25:
		return event.KeyF1 + event.KeyCode(sym-KeyF1)
	case sym >= KeyKP0 && sym <= KeyKP9:
		return event.KeyKp0 + event.KeyCode(sym-KeyKP0)
	}
	if sym < 0x80 {
		if code, ok := printableKeys[rune(sym)]; ok {
			return code
		}
		return event.KeyUnknown
	}
	if code, ok := specialKeys[sym]; ok {
		return code
	}
	return event.KeyUnknown
}

// KeysymToRune converts a keysym to the character it types, or 0. It
// covers Latin-1, the direct Unicode range and the editing and keypad keys
// libxkbcommon maps to control characters.
func KeysymToRune(sym uint32) rune {
	switch {
	case sym >= 0x20 && sym <= 0x7e, sym >= 0xa0 && sym <= 0xff:
		return rune(sym)
	case sym >= 0x01000100 && sym <= 0x0110ffff:
		return rune(sym - 0x01000000)
	case sym >= KeyKP0 && sym <= KeyKP9:
		return '0' + rune(sym-KeyKP0)
	}
	switch sym {
	case KeyBackSpace:
		return '\b'
	case KeyTab:
		return '\t'
	case KeyReturn, KeyKPEnter:
		return '\r'
	case KeyEscape:
		return 0x1b
	case KeyDelete:
		return 0x7f
	case KeyKPSpace:
		return ' '
	case KeyKPMultiply:
		return '*'
	case KeyKPAdd:
		return '+'
	case KeyKPSubtract:
		return '-'
	case KeyKPDecimal:
		return '.'
	case KeyKPDivide:
		return '/'
	case KeyKPEqual:
		return '='
	}
	return 0
}
