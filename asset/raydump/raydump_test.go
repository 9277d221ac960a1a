package raydump

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/achilleasa/lightfield/types"
)

func encode(t *testing.T, width, height uint32, records []Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, width, height, uint64(len(records)))
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if err = wr.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err = wr.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testRecords() []Record {
	var records []Record
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 4; x++ {
			records = append(records, Record{
				X:      x,
				Y:      y,
				Origin: types.XYZ(float32(x), float32(y), 1),
				Dir:    types.XYZ(0, 0, -1),
				Weight: 0.25,
			})
		}
	}
	return records
}

func TestReadInBatches(t *testing.T) {
	records := testRecords()
	data := encode(t, 4, 3, records)
	if exp := HeaderSize + len(records)*RecordSize; len(data) != exp {
		t.Fatalf("expected %d encoded bytes; got %d", exp, len(data))
	}

	rd, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if rd.Width != 4 || rd.Height != 3 || rd.Count != uint64(len(records)) {
		t.Fatalf("unexpected header %+v", rd.Header)
	}

	var got []Record
	batch := make([]Record, 5)
	for {
		out, err := rd.ReadBatch(batch)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, out...)
	}

	if len(got) != len(records) {
		t.Fatalf("expected %d records; got %d", len(records), len(got))
	}
	for i := range got {
		if got[i] != records[i] {
			t.Fatalf("record %d: expected %+v; got %+v", i, records[i], got[i])
		}
	}
}

func TestReaderErrors(t *testing.T) {
	valid := encode(t, 4, 3, testRecords())

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "XXXX")

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badVersion[4:], 42)

	unsorted := append([]byte(nil), valid...)
	// Move the second record to scanline 2 so the third one goes backwards.
	binary.LittleEndian.PutUint32(unsorted[HeaderSize+RecordSize+4:], 2)

	outOfRange := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(outOfRange[HeaderSize:], 9)

	type spec struct {
		data   []byte
		expErr error
	}
	specs := []spec{
		{valid[:10], ErrTruncated},
		{badMagic, ErrBadMagic},
		{badVersion, ErrUnsupportedVersion},
		{valid[:len(valid)-5], ErrTruncated},
		{unsorted, ErrUnsortedRecords},
		{outOfRange, ErrPixelOutOfRange},
	}

	for index, s := range specs {
		rd, err := NewReader(bytes.NewReader(s.data))
		if err == nil {
			batch := make([]Record, 64)
			for err == nil {
				_, err = rd.ReadBatch(batch)
			}
		}
		if !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
	}
}

func TestWriterErrors(t *testing.T) {
	var buf bytes.Buffer
	wr, err := NewWriter(&buf, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err = wr.Write(Record{X: 2, Y: 0}); !errors.Is(err, ErrPixelOutOfRange) {
		t.Fatalf("expected error %v; got %v", ErrPixelOutOfRange, err)
	}
	if err = wr.Write(Record{X: 0, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if err = wr.Write(Record{X: 0, Y: 0}); err != ErrUnsortedRecords {
		t.Fatalf("expected error %v; got %v", ErrUnsortedRecords, err)
	}
	if err = wr.Close(); !errors.Is(err, ErrRecordCount) {
		t.Fatalf("expected error %v; got %v", ErrRecordCount, err)
	}
}
