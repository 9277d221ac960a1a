package samplebuf

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/lightfield/asset"
	"github.com/achilleasa/lightfield/log"
)

const (
	dataFile = "buffer.bin"
)

var logger = log.New("samplebuf")

// Read a sample buffer from a zip archive.
func Read(res *asset.Resource) (*Buffer, error) {
	logger.Noticef(`reading sample buffer from "%s"`, res.Path())
	start := time.Now()

	// zip needs a ReaderAt so the payload is buffered in memory first.
	data, err := res.Bytes()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("samplebuf: %s is not a valid archive: %s", res.Path(), err.Error())
	}

	var buf *Buffer
	for _, f := range zr.File {
		if f.Name != dataFile {
			logger.Warningf("unknown file %s in sample buffer archive; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		buf = &Buffer{}
		err = gob.NewDecoder(rc).Decode(buf)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("samplebuf: failed to load %s: %s", f.Name, err.Error())
		}
	}

	if buf == nil {
		return nil, fmt.Errorf("samplebuf: archive %s does not contain %s", res.Path(), dataFile)
	}
	if err = buf.Validate(); err != nil {
		return nil, err
	}

	logger.Noticef("loaded %dx%d sample buffer (%d spp) in %d ms", buf.Width, buf.Height, buf.SamplesPerPixel, time.Since(start).Nanoseconds()/1000000)
	return buf, nil
}

// Read a sample buffer from a local path or URL.
func ReadFile(path string) (*Buffer, error) {
	res, err := asset.Open(path)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return Read(res)
}

// Write the buffer as a zip archive to w.
func Write(buf *Buffer, w io.Writer) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	cw, err := zw.Create(dataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(buf); err != nil {
		return err
	}
	return zw.Close()
}

// Write the buffer as a zip archive to a file.
func WriteFile(buf *Buffer, filename string) error {
	logger.Noticef("writing sample buffer to %s", filename)
	start := time.Now()

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = Write(buf, f); err != nil {
		return err
	}

	logger.Noticef("wrote sample buffer in %d ms", time.Since(start).Nanoseconds()/1000000)
	return nil
}
