package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Embeddings persist as fixed-length little-endian float32 blobs in
// extractor-native order. The encoding must round-trip bit-identically so
// stored samples match live extractor output under the same thresholds.

// EncodeEmbedding serializes an embedding vector to its storage blob.
func EncodeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

// DecodeEmbedding deserializes a storage blob back into a vector.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v, nil
}
