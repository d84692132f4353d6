// Package persistence provides binary snapshot serialization for neighbor
// bond lists, so expensive materialized queries can be cached between
// analysis passes. Snapshots carry a fixed header, a CRC32 checksum, and a
// compressed little-endian column payload.
package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"

	"github.com/periq/periq/nlist"
)

// Save writes the bond list to w using the given codec.
func Save(w io.Writer, l *nlist.List, codec Codec) error {
	n := l.NumBonds()

	var payload bytes.Buffer
	payload.Grow(n * 16)
	if err := binary.Write(&payload, binary.LittleEndian, l.QueryIndices()); err != nil {
		return err
	}
	if err := binary.Write(&payload, binary.LittleEndian, l.PointIndices()); err != nil {
		return err
	}
	if err := binary.Write(&payload, binary.LittleEndian, l.Distances()); err != nil {
		return err
	}
	if err := binary.Write(&payload, binary.LittleEndian, l.Weights()); err != nil {
		return err
	}

	raw := payload.Bytes()
	compressed, err := compress(raw, codec)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:            MagicNumber,
		Version:          Version,
		Codec:            uint8(codec),
		NumBonds:         uint64(n),
		NumQueryPoints:   uint64(l.NumQueryPoints()),
		NumPoints:        uint64(l.NumPoints()),
		UncompressedSize: uint64(len(raw)),
		Checksum:         ComputeChecksum(compressed),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// Load reads a bond list snapshot from r, verifying the checksum and
// re-validating the list invariants.
func Load(r io.Reader) (*nlist.List, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if actual := ComputeChecksum(compressed); actual != header.Checksum {
		return nil, &ChecksumMismatchError{Expected: header.Checksum, Actual: actual}
	}

	raw, err := decompress(compressed, Codec(header.Codec), int(header.UncompressedSize))
	if err != nil {
		return nil, err
	}

	n := int(header.NumBonds)
	if len(raw) != n*16 {
		return nil, fmt.Errorf("payload size %d does not match %d bonds", len(raw), n)
	}

	queryIndices := make([]uint32, n)
	pointIndices := make([]uint32, n)
	distances := make([]float32, n)
	weights := make([]float32, n)

	br := bytes.NewReader(raw)
	if err := binary.Read(br, binary.LittleEndian, queryIndices); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, pointIndices); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, distances); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, weights); err != nil {
		return nil, err
	}

	return nlist.FromArrays(queryIndices, pointIndices, distances, weights,
		int(header.NumQueryPoints), int(header.NumPoints))
}

func compress(raw []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecS2:
		return s2.Encode(nil, raw), nil
	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		var c lz4.Compressor
		m, err := c.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		if m == 0 || m >= len(raw) {
			// Incompressible; store verbatim. Load detects this by the
			// payload length matching the uncompressed size.
			return append(dst[:0], raw...), nil
		}
		return dst[:m], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCodec, codec)
	}
}

func decompress(compressed []byte, codec Codec, uncompressedSize int) ([]byte, error) {
	switch codec {
	case CodecS2:
		return s2.Decode(nil, compressed)
	case CodecLZ4:
		if len(compressed) == uncompressedSize {
			// Stored verbatim.
			return compressed, nil
		}
		dst := make([]byte, uncompressedSize)
		m, err := lz4.UncompressBlock(compressed, dst)
		if err != nil {
			return nil, err
		}
		return dst[:m], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidCodec, codec)
	}
}

// SaveToFile atomically writes a snapshot: data lands in a temporary file
// that is renamed over the target only after a successful sync.
func SaveToFile(filename string, l *nlist.List, codec Codec) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, l, codec); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

// LoadFromFile reads a snapshot written by SaveToFile.
func LoadFromFile(filename string) (*nlist.List, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
