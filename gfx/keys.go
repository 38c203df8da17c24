// Package gfx provides the graphical presentation front-end.
package gfx

import "github.com/hajimehoshi/ebiten/v2"

// MC1 keyboard scancodes published through the KEYEVENT register.
var scancodes = map[ebiten.Key]uint32{
	ebiten.KeyA: 0x01c,
	ebiten.KeyB: 0x032,
	ebiten.KeyC: 0x021,
	ebiten.KeyD: 0x023,
	ebiten.KeyE: 0x024,
	ebiten.KeyF: 0x02b,
	ebiten.KeyG: 0x034,
	ebiten.KeyH: 0x033,
	ebiten.KeyI: 0x043,
	ebiten.KeyJ: 0x03b,
	ebiten.KeyK: 0x042,
	ebiten.KeyL: 0x04b,
	ebiten.KeyM: 0x03a,
	ebiten.KeyN: 0x031,
	ebiten.KeyO: 0x044,
	ebiten.KeyP: 0x04d,
	ebiten.KeyQ: 0x015,
	ebiten.KeyR: 0x02d,
	ebiten.KeyS: 0x01b,
	ebiten.KeyT: 0x02c,
	ebiten.KeyU: 0x03c,
	ebiten.KeyV: 0x02a,
	ebiten.KeyW: 0x01d,
	ebiten.KeyX: 0x022,
	ebiten.KeyY: 0x035,
	ebiten.KeyZ: 0x01a,

	ebiten.KeyDigit0: 0x045,
	ebiten.KeyDigit1: 0x016,
	ebiten.KeyDigit2: 0x01e,
	ebiten.KeyDigit3: 0x026,
	ebiten.KeyDigit4: 0x025,
	ebiten.KeyDigit5: 0x02e,
	ebiten.KeyDigit6: 0x036,
	ebiten.KeyDigit7: 0x03d,
	ebiten.KeyDigit8: 0x03e,
	ebiten.KeyDigit9: 0x046,

	ebiten.KeySpace:        0x029,
	ebiten.KeyBackspace:    0x066,
	ebiten.KeyTab:          0x00d,
	ebiten.KeyShiftLeft:    0x012,
	ebiten.KeyControlLeft:  0x014,
	ebiten.KeyAltLeft:      0x011,
	ebiten.KeyMetaLeft:     0x11f,
	ebiten.KeyShiftRight:   0x059,
	ebiten.KeyControlRight: 0x114,
	ebiten.KeyAltRight:     0x111,
	ebiten.KeyMetaRight:    0x127,
	ebiten.KeyEnter:        0x05a,
	ebiten.KeyEscape:       0x076,

	ebiten.KeyF1:  0x005,
	ebiten.KeyF2:  0x006,
	ebiten.KeyF3:  0x004,
	ebiten.KeyF4:  0x00c,
	ebiten.KeyF5:  0x003,
	ebiten.KeyF6:  0x00b,
	ebiten.KeyF7:  0x083,
	ebiten.KeyF8:  0x00a,
	ebiten.KeyF9:  0x001,
	ebiten.KeyF10: 0x009,
	ebiten.KeyF11: 0x078,
	ebiten.KeyF12: 0x007,

	ebiten.KeyInsert:   0x170,
	ebiten.KeyHome:     0x16c,
	ebiten.KeyDelete:   0x171,
	ebiten.KeyEnd:      0x169,
	ebiten.KeyPageUp:   0x17d,
	ebiten.KeyPageDown: 0x17a,

	ebiten.KeyArrowUp:    0x175,
	ebiten.KeyArrowLeft:  0x16b,
	ebiten.KeyArrowDown:  0x172,
	ebiten.KeyArrowRight: 0x174,

	ebiten.KeyNumpad0:        0x070,
	ebiten.KeyNumpad1:        0x069,
	ebiten.KeyNumpad2:        0x072,
	ebiten.KeyNumpad3:        0x07a,
	ebiten.KeyNumpad4:        0x06b,
	ebiten.KeyNumpad5:        0x073,
	ebiten.KeyNumpad6:        0x074,
	ebiten.KeyNumpad7:        0x06c,
	ebiten.KeyNumpad8:        0x075,
	ebiten.KeyNumpad9:        0x07d,
	ebiten.KeyNumpadDecimal:  0x071,
	ebiten.KeyNumpadAdd:      0x079,
	ebiten.KeyNumpadSubtract: 0x07b,
	ebiten.KeyNumpadMultiply: 0x07c,
	ebiten.KeyNumpadDivide:   0x06d,
	ebiten.KeyNumpadEnter:    0x06e,
}
