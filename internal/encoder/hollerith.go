package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// hollerithRows is the row count of a Hollerith card. Rows are indexed
// top to bottom in punch order: 12, 11, 0, 1, 2, ... 9.
const hollerithRows = 12

// code029 lists the IBM 029 keypunch code for every character the keypunch
// can produce. Punches are written as in card manuals, zone first.
var code029 = map[byte]string{
	' ': "",
	'0': "0", '1': "1", '2': "2", '3': "3", '4': "4",
	'5': "5", '6': "6", '7': "7", '8': "8", '9': "9",

	'A': "12-1", 'B': "12-2", 'C': "12-3", 'D': "12-4", 'E': "12-5",
	'F': "12-6", 'G': "12-7", 'H': "12-8", 'I': "12-9",
	'J': "11-1", 'K': "11-2", 'L': "11-3", 'M': "11-4", 'N': "11-5",
	'O': "11-6", 'P': "11-7", 'Q': "11-8", 'R': "11-9",
	'S': "0-2", 'T': "0-3", 'U': "0-4", 'V': "0-5", 'W': "0-6",
	'X': "0-7", 'Y': "0-8", 'Z': "0-9",

	'&': "12", '-': "11", '/': "0-1",
	'.': "12-3-8", '<': "12-4-8", '(': "12-5-8", '+': "12-6-8", '|': "12-7-8",
	'!': "11-2-8", '$': "11-3-8", '*': "11-4-8", ')': "11-5-8", ';': "11-6-8", '^': "11-7-8",
	'\\': "0-2-8", ',': "0-3-8", '%': "0-4-8", '_': "0-5-8", '>': "0-6-8", '?': "0-7-8",
	':': "2-8", '#': "3-8", '@': "4-8", '\'': "5-8", '=': "6-8", '"': "7-8",
}

// fallbackZone marks a byte with no 029 code: 12-11-0 punched together,
// a combination no keypunch character uses. The byte's bits follow in
// rows 1 through 8, MSB first.
const fallbackZone uint16 = 1<<0 | 1<<1 | 1<<2

// punchMasks holds the row bitmask (bit i = row index i) for every byte
// value. reverse maps 029 masks back to their uppercase character.
var (
	punchMasks [256]uint16
	reverse    map[uint16]byte
)

func init() {
	reverse = make(map[uint16]byte, len(code029))
	for c, code := range code029 {
		mask := mustParsePunches(code)
		punchMasks[c] = mask
		reverse[mask] = c
	}

	for v := 0; v < 256; v++ {
		c := byte(v)
		switch {
		case c >= 'a' && c <= 'z':
			punchMasks[c] = punchMasks[c-'a'+'A']
		case !has029(c):
			punchMasks[c] = fallbackMask(c)
		}
	}
}

func has029(c byte) bool {
	_, ok := code029[c]
	return ok
}

// fallbackMask builds the 12-11-0 escape for a byte without a 029 code.
func fallbackMask(c byte) uint16 {
	mask := fallbackZone
	for bit := 0; bit < 8; bit++ {
		if c&(0x80>>bit) != 0 {
			mask |= 1 << rowIndex(bit+1)
		}
	}
	return mask
}

// rowIndex converts a punch label (12, 11, 0-9) to a top-down row index.
func rowIndex(punch int) int {
	switch punch {
	case 12:
		return 0
	case 11:
		return 1
	default:
		return punch + 2
	}
}

// mustParsePunches turns "12-3-8" into a row bitmask. The table is a
// compile-time constant, so a bad entry is a programming error.
func mustParsePunches(code string) uint16 {
	var mask uint16
	if code == "" {
		return mask
	}
	for _, part := range strings.Split(code, "-") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || (n > 9 && n != 11 && n != 12) {
			panic(fmt.Sprintf("encoder: bad 029 punch %q in %q", part, code))
		}
		mask |= 1 << rowIndex(n)
	}
	return mask
}

// hollerith stores one character per column. Lowercase letters fold to
// uppercase, as on the keypunch.
type hollerith struct{}

func (hollerith) slotsPerByte(p model.MachineProfile) int { return p.Rows }

func (hollerith) punch(dst []model.Hole, b byte, i int, p model.MachineProfile) []model.Hole {
	card, col := i/p.Columns, i%p.Columns
	mask := punchMasks[b]
	for row := 0; row < hollerithRows; row++ {
		if mask&(1<<row) != 0 {
			dst = append(dst, model.Hole{Card: card, Column: col, Row: row})
		}
	}
	return dst
}

func (hollerith) decode(m model.HoleMatrix, p model.MachineProfile) ([]byte, error) {
	masks := make([]uint16, m.Cards*p.Columns)
	for _, h := range m.Holes {
		masks[h.Card*p.Columns+h.Column] |= 1 << h.Row
	}

	out := make([]byte, len(masks))
	for i, mask := range masks {
		if c, ok := reverse[mask]; ok {
			out[i] = c
			continue
		}
		if mask&fallbackZone == fallbackZone {
			var c byte
			for bit := 0; bit < 8; bit++ {
				if mask&(1<<rowIndex(bit+1)) != 0 {
					c |= 0x80 >> bit
				}
			}
			out[i] = c
			continue
		}
		return nil, model.InvalidRequest("decode", "matrix", fmt.Sprintf("card %d column %d has no 029 code (mask %#03x)", i/p.Columns, i%p.Columns, mask))
	}
	return out, nil
}
