package bvh

import (
	"archive/zip"
	"encoding/binary"
	"encoding/gob"
	"io"
	"math"

	"github.com/achilleasa/lightfield/types"
	"github.com/google/uuid"
)

// Record sizes (in bytes) of the flattened layout consumed by device
// backends. All values are little endian.
const (
	// struct node {
	//    float3 min;   int left;    // t=0
	//    float3 max;   int right;
	//    float3 minT1; int s0;      // t=1
	//    float3 maxT1; int s1;
	// };
	NodeRecordSize = 64

	// struct sample {
	//    float3 hit;    float radius;
	//    float3 normal; float t;
	//    float3 motion; float bandwidth;
	//    float3 color;  int index;
	//    float3 origin; float pad;
	// };
	SampleRecordSize = 80

	// Low discrepancy table entries are float2.
	SampleTableEntrySize = 8
)

// A Flattened hierarchy packs nodes and samples into fixed-size records.
// LeafSamples repeats the sample records in hierarchy order so that every
// leaf maps to a contiguous range, which allows texture-like access.
type Flattened struct {
	Nodes       []byte
	Samples     []byte
	LeafSamples []byte
	SampleTable []byte

	NumNodes   int
	NumSamples int
}

// A contiguous range of rays processed by a single device dispatch.
type Batch struct {
	Offset int
	Count  int
}

// Manifest stored next to the flattened buffers.
type Manifest struct {
	RunID string

	NumNodes         int
	NumSamples       int
	SampleTableSize  int
	NodeRecordSize   int
	SampleRecordSize int

	Batches []Batch
}

func putVec3(buf []byte, v types.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}

func putFloat(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}

func putInt(buf []byte, i int32) {
	binary.LittleEndian.PutUint32(buf, uint32(i))
}

func (h *Hierarchy) putSampleRecord(buf []byte, index int32) {
	s := &h.Samples[index]
	putVec3(buf[0:], s.Hit)
	putFloat(buf[12:], s.Radius())
	putVec3(buf[16:], s.Normal)
	putFloat(buf[28:], s.T)
	putVec3(buf[32:], s.Motion)
	putFloat(buf[44:], s.Bandwidth)
	putVec3(buf[48:], s.Color)
	putInt(buf[60:], s.Index)
	putVec3(buf[64:], s.Origin)
}

// Flatten the hierarchy and generate a tableSize entry Hammersley table.
func (h *Hierarchy) Flatten(tableSize int) *Flattened {
	f := &Flattened{
		Nodes:       make([]byte, len(h.Nodes)*NodeRecordSize),
		Samples:     make([]byte, len(h.Samples)*SampleRecordSize),
		LeafSamples: make([]byte, len(h.Order)*SampleRecordSize),
		SampleTable: make([]byte, tableSize*SampleTableEntrySize),
		NumNodes:    len(h.Nodes),
		NumSamples:  len(h.Samples),
	}

	for i := range h.Nodes {
		n := &h.Nodes[i]
		rec := f.Nodes[i*NodeRecordSize:]
		putVec3(rec[0:], n.Min)
		putInt(rec[12:], n.Left)
		putVec3(rec[16:], n.Max)
		putInt(rec[28:], n.Right)
		putVec3(rec[32:], n.MinT1)
		putInt(rec[44:], n.S0)
		putVec3(rec[48:], n.MaxT1)
		putInt(rec[60:], n.S1)
	}

	for i := range h.Samples {
		h.putSampleRecord(f.Samples[i*SampleRecordSize:], int32(i))
	}
	for pos, index := range h.Order {
		h.putSampleRecord(f.LeafSamples[pos*SampleRecordSize:], index)
	}

	for i := 0; i < tableSize; i++ {
		p := types.Hammersley(uint32(i), uint32(tableSize))
		putFloat(f.SampleTable[i*SampleTableEntrySize:], p[0])
		putFloat(f.SampleTable[i*SampleTableEntrySize+4:], p[1])
	}

	return f
}

// Split numRays into batches of at most batchSize rays.
func PlanBatches(numRays, batchSize int) []Batch {
	if numRays <= 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = numRays
	}

	batches := make([]Batch, 0, (numRays+batchSize-1)/batchSize)
	for offset := 0; offset < numRays; offset += batchSize {
		count := batchSize
		if offset+count > numRays {
			count = numRays - offset
		}
		batches = append(batches, Batch{Offset: offset, Count: count})
	}
	return batches
}

// Write the flattened buffers and a manifest to a zip archive and return
// the manifest.
func WriteFlattened(w io.Writer, f *Flattened, batches []Batch) (*Manifest, error) {
	manifest := &Manifest{
		RunID:            uuid.New().String(),
		NumNodes:         f.NumNodes,
		NumSamples:       f.NumSamples,
		SampleTableSize:  len(f.SampleTable) / SampleTableEntrySize,
		NodeRecordSize:   NodeRecordSize,
		SampleRecordSize: SampleRecordSize,
		Batches:          batches,
	}

	zw := zip.NewWriter(w)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{"nodes.bin", f.Nodes},
		{"samples.bin", f.Samples},
		{"leafSamples.bin", f.LeafSamples},
		{"sampleTable.bin", f.SampleTable},
	} {
		cw, err := zw.Create(entry.name)
		if err != nil {
			return nil, err
		}
		if _, err = cw.Write(entry.data); err != nil {
			return nil, err
		}
	}

	cw, err := zw.Create("manifest.bin")
	if err != nil {
		return nil, err
	}
	if err = gob.NewEncoder(cw).Encode(manifest); err != nil {
		return nil, err
	}

	return manifest, zw.Close()
}
