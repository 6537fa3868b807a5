package store

import (
	"encoding/binary"
	"math"
)

// VectorToBlob packs a float32 vector into its raw little-endian byte
// representation with no header or length prefix. The number of floats is
// recoverable as len(blob)/4.
func VectorToBlob(v []float32) []byte {
	blob := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(f))
	}
	return blob
}

// BlobToVector unpacks a raw little-endian float32 blob back into a vector.
func BlobToVector(blob []byte) []float32 {
	n := len(blob) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}

// CosineSimilarity returns the cosine similarity between a and b. A
// dimension mismatch or a zero-norm vector yields 0, matching the brute
// force dense search's boundary behavior rather than erroring.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
