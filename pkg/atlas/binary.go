package atlas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/mmp/vtrender/pkg/glyph"
	"github.com/mmp/vtrender/pkg/util"
	"github.com/mmp/vtrender/pkg/vterr"
)

var magic = [4]byte{0xBA, 0xB1, 0xF0, 0xA7}

const formatVersion = 0x01

// DecodeError wraps vterr.ErrAtlasDecode with the specific reason, so
// callers can log a precise diagnosis while still matching on the sentinel
// with errors.Is.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "vtrender: atlas decode: " + e.Reason }
func (e *DecodeError) Unwrap() error { return vterr.ErrAtlasDecode }

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Encode serializes d per §6.2: little-endian header, metadata, glyph
// records, then a zlib-compressed texture payload.
func Encode(d *Data) ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(magic[:])
	buf.WriteByte(formatVersion)

	if err := writeString(&buf, d.FontName); err != nil {
		return nil, err
	}
	writeFloat32(&buf, d.FontSize)
	writeInt32(&buf, d.TexWidth)
	writeInt32(&buf, d.TexHeight)
	writeInt32(&buf, d.TexLayers)
	writeInt32(&buf, d.CellWidth)
	writeInt32(&buf, d.CellHeight)
	writeFloat32(&buf, d.Underline.Position)
	writeFloat32(&buf, d.Underline.Thickness)
	writeFloat32(&buf, d.Strikethrough.Position)
	writeFloat32(&buf, d.Strikethrough.Thickness)

	if len(d.Glyphs) > 0xFFFF {
		return nil, decodeErrorf("glyph count %d exceeds u16 range", len(d.Glyphs))
	}
	writeUint16(&buf, uint16(len(d.Glyphs)))

	for _, g := range d.Glyphs {
		writeUint16(&buf, uint16(g.ID))
		buf.WriteByte(styleByte(g.Style))
		if g.IsEmoji {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		writeInt32(&buf, g.PixelX)
		writeInt32(&buf, g.PixelY)
		if err := writeString(&buf, g.Symbol); err != nil {
			return nil, err
		}
	}

	wantLen := int64(d.TexWidth) * int64(d.TexHeight) * int64(d.TexLayers) * 4
	if int64(len(d.Pixels)) != wantLen {
		return nil, decodeErrorf("pixel buffer is %d bytes, expected %d", len(d.Pixels), wantLen)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(d.Pixels); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	writeUint32(&buf, uint32(compressed.Len()))
	buf.Write(compressed.Bytes())

	return buf.Bytes(), nil
}

// Decode parses the binary atlas format produced by Encode.
func Decode(data []byte) (*Data, error) {
	r := bytes.NewReader(data)

	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, decodeErrorf("truncated header: %v", err)
	}
	if gotMagic != magic {
		return nil, decodeErrorf("bad magic %x, want %x", gotMagic, magic)
	}

	version, err := r.ReadByte()
	if err != nil {
		return nil, decodeErrorf("truncated header: %v", err)
	}
	if version != formatVersion {
		return nil, decodeErrorf("unsupported version %#x", version)
	}

	d := &Data{}

	if d.FontName, err = readString(r); err != nil {
		return nil, err
	}
	if d.FontSize, err = readFloat32(r); err != nil {
		return nil, err
	}
	if d.TexWidth, err = readInt32(r); err != nil {
		return nil, err
	}
	if d.TexHeight, err = readInt32(r); err != nil {
		return nil, err
	}
	if d.TexLayers, err = readInt32(r); err != nil {
		return nil, err
	}
	if d.CellWidth, err = readInt32(r); err != nil {
		return nil, err
	}
	if d.CellHeight, err = readInt32(r); err != nil {
		return nil, err
	}

	var up, ut, sp, st float32
	for _, dst := range []*float32{&up, &ut, &sp, &st} {
		if *dst, err = readFloat32(r); err != nil {
			return nil, err
		}
	}
	d.Underline = NewLineDecoration(up, ut)
	d.Strikethrough = NewLineDecoration(sp, st)

	count, err := readUint16(r)
	if err != nil {
		return nil, decodeErrorf("truncated glyph count: %v", err)
	}

	d.Glyphs = make([]GlyphRecord, count)
	for i := range d.Glyphs {
		id, err := readUint16(r)
		if err != nil {
			return nil, decodeErrorf("truncated glyph record %d: %v", i, err)
		}
		styleB, err := r.ReadByte()
		if err != nil {
			return nil, decodeErrorf("truncated glyph record %d: %v", i, err)
		}
		style, err := styleFromByte(styleB)
		if err != nil {
			return nil, decodeErrorf("glyph record %d: %v", i, err)
		}
		emojiB, err := r.ReadByte()
		if err != nil {
			return nil, decodeErrorf("truncated glyph record %d: %v", i, err)
		}
		px, err := readInt32(r)
		if err != nil {
			return nil, decodeErrorf("truncated glyph record %d: %v", i, err)
		}
		py, err := readInt32(r)
		if err != nil {
			return nil, decodeErrorf("truncated glyph record %d: %v", i, err)
		}
		symbol, err := readString(r)
		if err != nil {
			return nil, err
		}
		d.Glyphs[i] = GlyphRecord{
			ID:      glyph.ID(id),
			Style:   style,
			IsEmoji: emojiB != 0,
			PixelX:  px,
			PixelY:  py,
			Symbol:  symbol,
		}
	}

	if lg := validateGlyphRecords(d.Glyphs, d.TexWidth, d.TexHeight); lg.HaveErrors() {
		return nil, decodeErrorf("glyph record validation failed:\n%s", lg.String())
	}

	dataLen, err := readUint32(r)
	if err != nil {
		return nil, decodeErrorf("truncated texture section: %v", err)
	}
	if int64(dataLen) > int64(r.Len()) {
		return nil, decodeErrorf("truncated texture section: declared length %d exceeds %d remaining bytes", dataLen, r.Len())
	}
	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, decodeErrorf("truncated texture section: %v", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, decodeErrorf("decompression failed: %v", err)
	}
	defer zr.Close()
	pixels, err := io.ReadAll(zr)
	if err != nil {
		return nil, decodeErrorf("decompression failed: %v", err)
	}
	d.Pixels = pixels

	wantLen := int64(d.TexWidth) * int64(d.TexHeight) * int64(d.TexLayers) * 4
	if int64(len(d.Pixels)) != wantLen {
		return nil, decodeErrorf("decompressed texture is %d bytes, expected %d", len(d.Pixels), wantLen)
	}

	d.buildIndex()
	return d, nil
}

// validateGlyphRecords checks every record's internal consistency —
// IsEmoji agrees with the ID's own emoji bit, the pixel origin falls
// inside the declared texture, and no two records claim the same
// (symbol, style) pair, which buildIndex would otherwise silently resolve
// to whichever record came last. Every record is checked regardless of
// earlier failures, so one malformed atlas reports everything wrong with
// it in a single pass rather than forcing a fix-rebuild-decode cycle per
// record.
func validateGlyphRecords(glyphs []GlyphRecord, texW, texH int32) *util.ErrorLogger {
	lg := &util.ErrorLogger{}
	seen := make(map[symbolKey]int, len(glyphs))
	for i, g := range glyphs {
		lg.Push(fmt.Sprintf("glyph record %d", i))

		if g.IsEmoji != g.ID.IsEmoji() {
			lg.ErrorString("IsEmoji=%v but glyph ID %#04x has emoji bit %v", g.IsEmoji, uint16(g.ID), g.ID.IsEmoji())
		}
		if g.PixelX < 0 || g.PixelY < 0 || g.PixelX >= texW || g.PixelY >= texH {
			lg.ErrorString("pixel origin (%d,%d) outside %dx%d texture", g.PixelX, g.PixelY, texW, texH)
		}
		key := symbolKey{symbol: g.Symbol, style: g.Style}
		if prev, ok := seen[key]; ok {
			lg.ErrorString("duplicate (symbol %q, style %v) also recorded at index %d", g.Symbol, g.Style, prev)
		} else {
			seen[key] = i
		}

		lg.Pop()
	}
	return lg
}

func styleByte(s glyph.Style) byte {
	switch s {
	case glyph.Bold:
		return 1
	case glyph.Italic:
		return 2
	case glyph.BoldItalic:
		return 3
	default:
		return 0
	}
}

func styleFromByte(b byte) (glyph.Style, error) {
	switch b {
	case 0:
		return glyph.Normal, nil
	case 1:
		return glyph.Bold, nil
	case 2:
		return glyph.Italic, nil
	case 3:
		return glyph.BoldItalic, nil
	default:
		return 0, fmt.Errorf("invalid style byte %d", b)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFF {
		return decodeErrorf("string %q exceeds 255 bytes", s)
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", decodeErrorf("truncated string length: %v", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", decodeErrorf("truncated string: %v", err)
	}
	return string(b), nil
}

func writeInt32(buf *bytes.Buffer, v int32)     { binary.Write(buf, binary.LittleEndian, v) }
func writeUint16(buf *bytes.Buffer, v uint16)   { binary.Write(buf, binary.LittleEndian, v) }
func writeUint32(buf *bytes.Buffer, v uint32)   { binary.Write(buf, binary.LittleEndian, v) }
func writeFloat32(buf *bytes.Buffer, v float32) { binary.Write(buf, binary.LittleEndian, v) }

func readInt32(r *bytes.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readFloat32(r *bytes.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
