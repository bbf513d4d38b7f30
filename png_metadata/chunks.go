// chunk reading adapted from https://github.com/parsiya/Go-Security/blob/master/png-tests/png-chunk-extraction.go

package png_metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// 89 50 4E 47 0D 0A 1A 0A
const pngHeader = "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"

const iHDRLength = 13

// Each chunk starts with a uint32 length (big endian), then 4 byte name,
// then data and finally the CRC32 of type and data.
type chunk struct {
	CType string
	Data  []byte
	Crc32 uint32
}

func (c *chunk) populate(r io.Reader) error {
	buf := make([]byte, 4)

	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}

	length := binary.BigEndian.Uint32(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return unexpectedEOF(err)
	}

	c.CType = string(buf)

	data := make([]byte, length)

	if _, err := io.ReadFull(r, data); err != nil {
		return unexpectedEOF(err)
	}

	c.Data = data

	if _, err := io.ReadFull(r, buf); err != nil {
		return unexpectedEOF(err)
	}

	c.Crc32 = binary.BigEndian.Uint32(buf)

	return nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

func (c *chunk) checksum() uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(c.CType))
	crc.Write(c.Data)

	return crc.Sum32()
}

func (c *chunk) writeTo(w *bytes.Buffer) {
	var buf [4]byte

	binary.BigEndian.PutUint32(buf[:], uint32(len(c.Data)))
	w.Write(buf[:])
	w.WriteString(c.CType)
	w.Write(c.Data)
	binary.BigEndian.PutUint32(buf[:], c.checksum())
	w.Write(buf[:])
}

// Header is the decoded IHDR chunk.
type Header struct {
	Width             int
	Height            int
	BitDepth          int
	ColorType         int
	CompressionMethod int
	FilterMethod      int
	InterlaceMethod   int
}

// https://golang.org/src/image/png/reader.go?#L142 is your friend.
func parseIHDR(iHDR *chunk) (*Header, error) {
	if iHDR.CType != "IHDR" {
		return nil, fmt.Errorf("first chunk is %q, expected IHDR", iHDR.CType)
	}

	if len(iHDR.Data) != iHDRLength {
		return nil, fmt.Errorf("invalid IHDR length: got %d - expected %d", len(iHDR.Data), iHDRLength)
	}

	tmp := iHDR.Data

	header := &Header{
		Width:             int(binary.BigEndian.Uint32(tmp[0:4])),
		Height:            int(binary.BigEndian.Uint32(tmp[4:8])),
		BitDepth:          int(tmp[8]),
		ColorType:         int(tmp[9]),
		CompressionMethod: int(tmp[10]),
		FilterMethod:      int(tmp[11]),
		InterlaceMethod:   int(tmp[12]),
	}

	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions in IHDR - got %dx%d", header.Width, header.Height)
	}

	// Only compression method 0 is supported
	if header.CompressionMethod != 0 {
		return nil, fmt.Errorf("invalid compression method - expected 0 - got %x", tmp[10])
	}

	// Only filter method 0 is supported
	if header.FilterMethod != 0 {
		return nil, fmt.Errorf("invalid filter method - expected 0 - got %x", tmp[11])
	}

	if header.InterlaceMethod > 1 {
		return nil, fmt.Errorf("invalid interlace method - expected 0 or 1 - got %x", tmp[12])
	}

	return header, nil
}

func readChunks(data []byte) ([]*chunk, *Header, error) {
	if len(data) < len(pngHeader) || string(data[:len(pngHeader)]) != pngHeader {
		return nil, nil, ErrNotPNG
	}

	reader := bytes.NewReader(data[len(pngHeader):])

	var chunks []*chunk

	for {
		var c chunk

		err := c.populate(reader)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("reading PNG chunk %d: %w", len(chunks), err)
		}

		chunks = append(chunks, &c)

		if c.CType == "IEND" {
			break
		}
	}

	if len(chunks) == 0 {
		return nil, nil, errors.New("PNG has no chunks")
	}

	header, err := parseIHDR(chunks[0])
	if err != nil {
		return nil, nil, err
	}

	return chunks, header, nil
}
