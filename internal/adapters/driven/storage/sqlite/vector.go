package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// EncodeVector converts a vector to its little-endian float32 blob.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector converts a blob produced by EncodeVector back to floats.
// The result is bit-identical to the encoded input.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", domain.ErrCorruptEmbedding, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
