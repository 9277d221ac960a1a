// Package raydump reads and writes streams of externally generated query
// rays. A stream starts with a fixed header followed by fixed-size records
// sorted by scanline. All values are little endian.
//
//	header: magic "RDMP" | version u32 | width u32 | height u32 | count u64
//	record: x i32 | y i32 | origin 3xf32 | dir 3xf32 | weight f32
package raydump

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/achilleasa/lightfield/asset"
	"github.com/achilleasa/lightfield/types"
)

const (
	magic   = "RDMP"
	Version = 1

	HeaderSize = 24
	RecordSize = 36
)

var (
	ErrBadMagic           = errors.New("raydump: bad magic")
	ErrUnsupportedVersion = errors.New("raydump: unsupported version")
	ErrTruncated          = errors.New("raydump: truncated stream")
	ErrUnsortedRecords    = errors.New("raydump: records are not sorted by scanline")
	ErrPixelOutOfRange    = errors.New("raydump: record pixel outside frame")
	ErrRecordCount        = errors.New("raydump: record count does not match header")
)

type Header struct {
	Version uint32
	Width   uint32
	Height  uint32
	Count   uint64
}

// A query ray contributing weight * radiance to pixel (X, Y).
type Record struct {
	X, Y   int32
	Origin types.Vec3
	Dir    types.Vec3
	Weight float32
}

func getVec3(buf []byte) types.Vec3 {
	return types.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])),
	}
}

func putVec3(buf []byte, v types.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(v[2]))
}

// A Reader decodes a ray dump stream in batches.
type Reader struct {
	Header

	r      *bufio.Reader
	closer io.Closer

	read  uint64
	lastY int32
	buf   [RecordSize]byte
}

// Create a reader and decode the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{
		r:     bufio.NewReader(r),
		lastY: -1,
	}

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(rd.r, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if string(hdr[0:4]) != magic {
		return nil, ErrBadMagic
	}

	rd.Header = Header{
		Version: binary.LittleEndian.Uint32(hdr[4:]),
		Width:   binary.LittleEndian.Uint32(hdr[8:]),
		Height:  binary.LittleEndian.Uint32(hdr[12:]),
		Count:   binary.LittleEndian.Uint64(hdr[16:]),
	}
	if rd.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rd.Version)
	}
	return rd, nil
}

// Open a ray dump from a local path or URL.
func Open(path string) (*Reader, error) {
	res, err := asset.Open(path)
	if err != nil {
		return nil, err
	}

	rd, err := NewReader(res)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("raydump: %s: %w", res.Path(), err)
	}
	rd.closer = res
	return rd, nil
}

// Get the number of records that have not been read yet.
func (rd *Reader) Remaining() uint64 {
	return rd.Count - rd.read
}

// Decode up to len(dst) records into dst and return the filled slice. It
// returns io.EOF once all records announced by the header have been read.
func (rd *Reader) ReadBatch(dst []Record) ([]Record, error) {
	if rd.read == rd.Count {
		return dst[:0], io.EOF
	}

	n := uint64(len(dst))
	if remaining := rd.Remaining(); n > remaining {
		n = remaining
	}

	out := dst[:n]
	for i := range out {
		if _, err := io.ReadFull(rd.r, rd.buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return out[:i], fmt.Errorf("%w: record %d of %d", ErrTruncated, rd.read, rd.Count)
			}
			return out[:i], err
		}

		rec := &out[i]
		rec.X = int32(binary.LittleEndian.Uint32(rd.buf[0:]))
		rec.Y = int32(binary.LittleEndian.Uint32(rd.buf[4:]))
		rec.Origin = getVec3(rd.buf[8:])
		rec.Dir = getVec3(rd.buf[20:])
		rec.Weight = math.Float32frombits(binary.LittleEndian.Uint32(rd.buf[32:]))

		if err := rd.check(rec); err != nil {
			return out[:i], err
		}
		rd.read++
	}

	return out, nil
}

func (rd *Reader) check(rec *Record) error {
	if rec.X < 0 || rec.Y < 0 || uint32(rec.X) >= rd.Width || uint32(rec.Y) >= rd.Height {
		return fmt.Errorf("%w: record %d targets (%d, %d)", ErrPixelOutOfRange, rd.read, rec.X, rec.Y)
	}
	if rec.Y < rd.lastY {
		return fmt.Errorf("%w: record %d (y=%d) follows y=%d", ErrUnsortedRecords, rd.read, rec.Y, rd.lastY)
	}
	rd.lastY = rec.Y
	return nil
}

// Close the underlying resource if the reader owns it.
func (rd *Reader) Close() error {
	if rd.closer != nil {
		return rd.closer.Close()
	}
	return nil
}

// A Writer encodes a ray dump stream.
type Writer struct {
	Header

	w       *bufio.Writer
	written uint64
	lastY   int32
	buf     [RecordSize]byte
}

// Create a writer and emit the header for a stream of count records.
func NewWriter(w io.Writer, width, height uint32, count uint64) (*Writer, error) {
	wr := &Writer{
		Header: Header{Version: Version, Width: width, Height: height, Count: count},
		w:      bufio.NewWriter(w),
		lastY:  -1,
	}

	var hdr [HeaderSize]byte
	copy(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:], Version)
	binary.LittleEndian.PutUint32(hdr[8:], width)
	binary.LittleEndian.PutUint32(hdr[12:], height)
	binary.LittleEndian.PutUint64(hdr[16:], count)
	if _, err := wr.w.Write(hdr[:]); err != nil {
		return nil, err
	}
	return wr, nil
}

// Append a record. Records must be written in scanline order.
func (wr *Writer) Write(rec Record) error {
	if wr.written == wr.Count {
		return ErrRecordCount
	}
	if rec.X < 0 || rec.Y < 0 || uint32(rec.X) >= wr.Width || uint32(rec.Y) >= wr.Height {
		return fmt.Errorf("%w: (%d, %d)", ErrPixelOutOfRange, rec.X, rec.Y)
	}
	if rec.Y < wr.lastY {
		return ErrUnsortedRecords
	}
	wr.lastY = rec.Y

	binary.LittleEndian.PutUint32(wr.buf[0:], uint32(rec.X))
	binary.LittleEndian.PutUint32(wr.buf[4:], uint32(rec.Y))
	putVec3(wr.buf[8:], rec.Origin)
	putVec3(wr.buf[20:], rec.Dir)
	binary.LittleEndian.PutUint32(wr.buf[32:], math.Float32bits(rec.Weight))
	if _, err := wr.w.Write(wr.buf[:]); err != nil {
		return err
	}
	wr.written++
	return nil
}

// Flush buffered records. It fails if fewer records than announced were written.
func (wr *Writer) Close() error {
	if err := wr.w.Flush(); err != nil {
		return err
	}
	if wr.written != wr.Count {
		return fmt.Errorf("%w: wrote %d of %d", ErrRecordCount, wr.written, wr.Count)
	}
	return nil
}
