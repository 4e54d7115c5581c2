package storage

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/qtccc/qtc-assignment-2/internal/kmeans"
)

func TestEncodeDecodePoints(t *testing.T) {
	ps, err := kmeans.NewPointSet([]kmeans.Point{
		{0, 0, 0}, {-1.5, 2.25, kmeans.MaxMagnitude}, {-kmeans.MaxMagnitude, 3, 4}, {math.SmallestNonzeroFloat64, 7, -8},
	})
	if err != nil {
		t.Fatalf("NewPointSet: %v", err)
	}

	blob, err := EncodePoints(ps)
	if err != nil {
		t.Fatalf("EncodePoints: %v", err)
	}
	got, err := DecodePoints(blob)
	if err != nil {
		t.Fatalf("DecodePoints: %v", err)
	}
	if !got.Equal(ps) {
		t.Errorf("round trip mismatch: %v vs %v", got.Points(), ps.Points())
	}
}

func TestEncodeCompresses(t *testing.T) {
	points := make([]kmeans.Point, 1000)
	for i := range points {
		points[i] = kmeans.Point{1, 1}
	}
	ps, _ := kmeans.NewPointSet(points)
	blob, err := EncodePoints(ps)
	if err != nil {
		t.Fatalf("EncodePoints: %v", err)
	}
	if raw := blobHeaderSize + 1000*2*8; len(blob) >= raw {
		t.Errorf("expected compressed blob below %d bytes, got %d", raw, len(blob))
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, err := DecodePoints([]byte("not zstd")); !errors.Is(err, errCorruptBlob) {
		t.Errorf("expected corrupt blob error, got %v", err)
	}

	truncated := encoder.EncodeAll([]byte{2, 0, 0, 0, 2, 0, 0, 0, 1}, nil)
	if _, err := DecodePoints(truncated); !errors.Is(err, errCorruptBlob) {
		t.Errorf("expected corrupt blob error for short payload, got %v", err)
	}
}

func TestDecodeRejectsOutOfRangeCoordinates(t *testing.T) {
	raw := make([]byte, blobHeaderSize+2*8)
	binary.LittleEndian.PutUint32(raw[0:], 1)
	binary.LittleEndian.PutUint32(raw[4:], 2)
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(1))
	binary.LittleEndian.PutUint64(raw[16:], math.Float64bits(1e200))

	_, err := DecodePoints(encoder.EncodeAll(raw, nil))
	if !errors.Is(err, kmeans.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEncodeNil(t *testing.T) {
	if _, err := EncodePoints(nil); !errors.Is(err, kmeans.ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}
