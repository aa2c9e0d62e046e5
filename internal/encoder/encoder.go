package encoder

import (
	"fmt"
	"math"

	"github.com/mmr-tortoise/cardpunch/internal/model"
)

// policy is the per-encoding byte-to-hole mapping. Implementations hold no
// state; the set is closed and chosen by policyFor.
type policy interface {
	// slotsPerByte is the number of grid positions one byte consumes.
	slotsPerByte(p model.MachineProfile) int

	// punch appends the holes for payload byte b at index i.
	punch(dst []model.Hole, b byte, i int, p model.MachineProfile) []model.Hole

	// decode reads back the bytes recorded on m.Cards cards.
	decode(m model.HoleMatrix, p model.MachineProfile) ([]byte, error)
}

// policyFor returns the policy for the profile's encoding, after checking
// the grid has the rows that encoding needs.
func policyFor(op string, p model.MachineProfile) (policy, error) {
	if p.Columns < 1 || p.Rows < 1 {
		return nil, model.InvalidRequest(op, "profile", fmt.Sprintf("profile %q has an empty %dx%d grid", p.ID, p.Columns, p.Rows))
	}

	switch p.Encoding {
	case model.EncodingBitstream:
		return bitstream{}, nil
	case model.EncodingByteColumn:
		if p.Rows < 8 {
			return nil, model.InvalidRequest(op, "encoding", fmt.Sprintf("byte-column needs at least 8 rows, profile %q has %d", p.ID, p.Rows))
		}
		return byteColumn{}, nil
	case model.EncodingHollerith:
		if p.Rows != hollerithRows {
			return nil, model.InvalidRequest(op, "encoding", fmt.Sprintf("hollerith needs %d rows, profile %q has %d", hollerithRows, p.ID, p.Rows))
		}
		return hollerith{}, nil
	default:
		return nil, model.InvalidRequest(op, "encoding", fmt.Sprintf("profile %q has unknown encoding %q", p.ID, p.Encoding))
	}
}

// Encode maps payload onto up to verticalRepeat cards of the given profile.
//
// When blank is true the payload is ignored and an empty matrix shaped to
// the profile and verticalRepeat is returned. Otherwise the matrix records
// every punched position and the number of cards actually used, which is
// ceil(required / capacity).
func Encode(payload []byte, profile model.MachineProfile, verticalRepeat int, blank bool) (model.HoleMatrix, error) {
	const op = "encode"

	if verticalRepeat < 1 {
		return model.HoleMatrix{}, model.InvalidRequest(op, "vertical_repeat", fmt.Sprintf("must be at least 1, got %d", verticalRepeat))
	}

	pol, err := policyFor(op, profile)
	if err != nil {
		return model.HoleMatrix{}, err
	}

	m := model.HoleMatrix{
		Columns: profile.Columns,
		Rows:    profile.Rows,
		Repeat:  verticalRepeat,
		Holes:   []model.Hole{},
	}
	if blank {
		return m, nil
	}

	capacity := profile.Capacity()
	required := len(payload) * pol.slotsPerByte(profile)
	// Compared in cards: capacity*verticalRepeat can overflow.
	if ceilDiv(required, capacity) > verticalRepeat {
		return model.HoleMatrix{}, model.PayloadTooLarge(op, required, capacity, verticalRepeat)
	}

	for i, b := range payload {
		m.Holes = pol.punch(m.Holes, b, i, profile)
	}
	m.Cards = ceilDiv(required, capacity)
	return m, nil
}

// Decode reads back the bytes recorded in m. The result covers every
// position on m.Cards cards, so it may carry trailing padding: zero bytes
// for bitstream and byte-column, spaces for hollerith.
//
// Hollerith encoding folds lowercase letters to uppercase, so decoding a
// hollerith matrix returns uppercase text.
func Decode(m model.HoleMatrix, profile model.MachineProfile) ([]byte, error) {
	const op = "decode"

	pol, err := policyFor(op, profile)
	if err != nil {
		return nil, err
	}
	if m.Columns != profile.Columns || m.Rows != profile.Rows {
		return nil, model.InvalidRequest(op, "matrix", fmt.Sprintf("matrix is %dx%d but profile %q is %dx%d", m.Columns, m.Rows, profile.ID, profile.Columns, profile.Rows))
	}
	for _, h := range m.Holes {
		if h.Card < 0 || h.Card >= m.Cards || h.Column < 0 || h.Column >= m.Columns || h.Row < 0 || h.Row >= m.Rows {
			return nil, model.InvalidRequest(op, "matrix", fmt.Sprintf("hole %+v lies outside %d card(s) of %dx%d", h, m.Cards, m.Columns, m.Rows))
		}
	}
	return pol.decode(m, profile)
}

// CardsNeeded returns how many cards a payload of the given length
// occupies on profile, or an error when the profile cannot be encoded onto.
func CardsNeeded(length int, profile model.MachineProfile) (int, error) {
	if length < 0 {
		return 0, model.InvalidRequest("capacity", "length", fmt.Sprintf("must not be negative, got %d", length))
	}
	pol, err := policyFor("capacity", profile)
	if err != nil {
		return 0, err
	}
	slots := pol.slotsPerByte(profile)
	if length > math.MaxInt/slots {
		return 0, model.InvalidRequest("capacity", "length", fmt.Sprintf("%d bytes is too large to count", length))
	}
	return ceilDiv(length*slots, profile.Capacity()), nil
}

// BytesPerCard returns how many payload bytes fit on a single card.
func BytesPerCard(profile model.MachineProfile) (int, error) {
	pol, err := policyFor("capacity", profile)
	if err != nil {
		return 0, err
	}
	return profile.Capacity() / pol.slotsPerByte(profile), nil
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// bitstream packs bits densely. Bit k of the stream lands at position
// k mod capacity on card k / capacity; positions fill each column top-down.
type bitstream struct{}

func (bitstream) slotsPerByte(model.MachineProfile) int { return 8 }

func (bitstream) punch(dst []model.Hole, b byte, i int, p model.MachineProfile) []model.Hole {
	capacity := p.Capacity()
	for bit := 0; bit < 8; bit++ {
		if b&(0x80>>bit) == 0 {
			continue
		}
		k := i*8 + bit
		pos := k % capacity
		dst = append(dst, model.Hole{Card: k / capacity, Column: pos / p.Rows, Row: pos % p.Rows})
	}
	return dst
}

func (bitstream) decode(m model.HoleMatrix, p model.MachineProfile) ([]byte, error) {
	capacity := p.Capacity()
	out := make([]byte, m.Cards*capacity/8)
	for _, h := range m.Holes {
		k := h.Card*capacity + h.Column*p.Rows + h.Row
		if k/8 < len(out) {
			out[k/8] |= 0x80 >> (k % 8)
		}
	}
	return out, nil
}

// byteColumn stores byte i in column i mod columns of card i / columns.
type byteColumn struct{}

func (byteColumn) slotsPerByte(p model.MachineProfile) int { return p.Rows }

func (byteColumn) punch(dst []model.Hole, b byte, i int, p model.MachineProfile) []model.Hole {
	card, col := i/p.Columns, i%p.Columns
	for bit := 0; bit < 8; bit++ {
		if b&(0x80>>bit) != 0 {
			dst = append(dst, model.Hole{Card: card, Column: col, Row: bit})
		}
	}
	return dst
}

func (byteColumn) decode(m model.HoleMatrix, p model.MachineProfile) ([]byte, error) {
	out := make([]byte, m.Cards*p.Columns)
	for _, h := range m.Holes {
		if h.Row >= 8 {
			return nil, model.InvalidRequest("decode", "matrix", fmt.Sprintf("row %d is unused by byte-column", h.Row))
		}
		out[h.Card*p.Columns+h.Column] |= 0x80 >> h.Row
	}
	return out, nil
}
