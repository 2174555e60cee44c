package testutil

import (
	"encoding/binary"
	"sort"
)

// TIFF tag ids used by fixtures.
const (
	TagImageDescription = 0x010E
	TagMake             = 0x010F
	TagModel            = 0x0110
	TagOrientation      = 0x0112
	TagSoftware         = 0x0131
	TagDateTime         = 0x0132
	TagArtist           = 0x013B
	TagExposureTime     = 0x829A
	TagFNumber          = 0x829D
	TagISOSpeedRatings  = 0x8827
	TagFocalLength      = 0x920A
	TagPixelXDimension  = 0xA002
	TagPixelYDimension  = 0xA003
	TagFocalLength35mm  = 0xA405
)

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	// inline holds the value when it fits in four bytes; data holds
	// out-of-line payload placed after the IFD.
	inline [4]byte
	data   []byte
}

// TIFFBuilder assembles a minimal little-endian TIFF stream with a single
// IFD, enough for EXIF parsers that walk IFD0.
type TIFFBuilder struct {
	entries []tiffEntry
}

// NewTIFF returns an empty builder.
func NewTIFF() *TIFFBuilder {
	return &TIFFBuilder{}
}

// AddASCII adds a NUL-terminated ASCII tag.
func (b *TIFFBuilder) AddASCII(tag uint16, s string) *TIFFBuilder {
	raw := append([]byte(s), 0)
	e := tiffEntry{tag: tag, typ: typeASCII, count: uint32(len(raw))}
	if len(raw) <= 4 {
		copy(e.inline[:], raw)
	} else {
		e.data = raw
	}
	b.entries = append(b.entries, e)
	return b
}

// AddShort adds a single SHORT tag.
func (b *TIFFBuilder) AddShort(tag uint16, v uint16) *TIFFBuilder {
	e := tiffEntry{tag: tag, typ: typeShort, count: 1}
	binary.LittleEndian.PutUint16(e.inline[:2], v)
	b.entries = append(b.entries, e)
	return b
}

// AddLong adds a single LONG tag.
func (b *TIFFBuilder) AddLong(tag uint16, v uint32) *TIFFBuilder {
	e := tiffEntry{tag: tag, typ: typeLong, count: 1}
	binary.LittleEndian.PutUint32(e.inline[:], v)
	b.entries = append(b.entries, e)
	return b
}

// AddRational adds a single RATIONAL tag.
func (b *TIFFBuilder) AddRational(tag uint16, num, den uint32) *TIFFBuilder {
	e := tiffEntry{tag: tag, typ: typeRational, count: 1, data: make([]byte, 8)}
	binary.LittleEndian.PutUint32(e.data[:4], num)
	binary.LittleEndian.PutUint32(e.data[4:], den)
	b.entries = append(b.entries, e)
	return b
}

// Build serializes the TIFF stream.
func (b *TIFFBuilder) Build() []byte {
	entries := make([]tiffEntry, len(b.entries))
	copy(entries, b.entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	n := len(entries)
	ifdStart := 8
	dataStart := ifdStart + 2 + n*12 + 4

	out := make([]byte, 0, dataStart+64)
	out = append(out, 'I', 'I', 0x2A, 0x00)
	out = binary.LittleEndian.AppendUint32(out, uint32(ifdStart))
	out = binary.LittleEndian.AppendUint16(out, uint16(n))

	// Out-of-line payloads land after the IFD in entry order.
	offset := dataStart
	var payload []byte
	for i := range entries {
		e := &entries[i]
		out = binary.LittleEndian.AppendUint16(out, e.tag)
		out = binary.LittleEndian.AppendUint16(out, e.typ)
		out = binary.LittleEndian.AppendUint32(out, e.count)
		if e.data != nil {
			var off [4]byte
			binary.LittleEndian.PutUint32(off[:], uint32(offset))
			out = append(out, off[:]...)
			payload = append(payload, e.data...)
			offset += len(e.data)
		} else {
			out = append(out, e.inline[:]...)
		}
	}
	out = binary.LittleEndian.AppendUint32(out, 0) // next IFD
	out = append(out, payload...)
	return out
}

// WrapEXIF prefixes a TIFF stream with the EXIF APP1 identifier.
func WrapEXIF(tiffData []byte) []byte {
	return append([]byte("Exif\x00\x00"), tiffData...)
}

// InsertAPP1 returns a copy of a JPEG stream with an APP1 segment carrying
// the given payload inserted immediately after SOI.
func InsertAPP1(jpegData, payload []byte) []byte {
	if len(jpegData) < 2 {
		return jpegData
	}
	segLen := len(payload) + 2
	out := make([]byte, 0, len(jpegData)+segLen+2)
	out = append(out, jpegData[:2]...) // SOI
	out = append(out, 0xFF, 0xE1, byte(segLen>>8), byte(segLen&0xFF))
	out = append(out, payload...)
	out = append(out, jpegData[2:]...)
	return out
}

// CameraTIFF builds an EXIF payload resembling a typical camera header.
func CameraTIFF(make, model string, orientation uint16) []byte {
	return NewTIFF().
		AddASCII(TagMake, make).
		AddASCII(TagModel, model).
		AddShort(TagOrientation, orientation).
		AddShort(TagISOSpeedRatings, 200).
		AddRational(TagExposureTime, 1, 250).
		AddRational(TagFNumber, 28, 10).
		AddRational(TagFocalLength, 50, 1).
		Build()
}
