package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

var errCorruptBlob = errors.New("corrupt point blob")

const blobHeaderSize = 8

// EncodePoints serializes ps as a zstd frame holding a little-endian
// (n uint32, dim uint32) header followed by n*dim float64 coordinates.
func EncodePoints(ps *kmeans.PointSet) ([]byte, error) {
	if ps == nil {
		return nil, kmeans.ErrEmptyDataset
	}
	n, dim := ps.Len(), ps.Dim()
	raw := make([]byte, blobHeaderSize+n*dim*8)
	binary.LittleEndian.PutUint32(raw[0:], uint32(n))
	binary.LittleEndian.PutUint32(raw[4:], uint32(dim))
	off := blobHeaderSize
	for i := range n {
		for _, x := range ps.At(i) {
			binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(x))
			off += 8
		}
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodePoints reverses EncodePoints.
func DecodePoints(blob []byte) (*kmeans.PointSet, error) {
	raw, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptBlob, err)
	}
	if len(raw) < blobHeaderSize {
		return nil, fmt.Errorf("%w: %d byte payload", errCorruptBlob, len(raw))
	}
	n := int(binary.LittleEndian.Uint32(raw[0:]))
	dim := int(binary.LittleEndian.Uint32(raw[4:]))
	if len(raw) != blobHeaderSize+n*dim*8 {
		return nil, fmt.Errorf("%w: %d points of dimension %d in %d bytes", errCorruptBlob, n, dim, len(raw))
	}

	points := make([]kmeans.Point, n)
	off := blobHeaderSize
	for i := range points {
		p := make(kmeans.Point, dim)
		for j := range p {
			p[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			off += 8
		}
		points[i] = p
	}
	return kmeans.NewPointSet(points)
}
