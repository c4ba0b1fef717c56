// Package audio provides the PCM primitives shared by the relay pipeline:
// the Frame transport type, int16 ↔ float32 sample conversion, RMS energy,
// and band-limited sample-rate conversion.
//
// All functions treat audio as little-endian signed 16-bit mono PCM on the
// wire and normalised float32 in [-1, 1] for signal processing. Conversions
// allocate new buffers; input slices are never modified.
package audio

import "math"

// Int16ToFloat32 decodes little-endian int16 PCM bytes into normalised
// float32 samples in [-1, 1]. A trailing odd byte is ignored.
func Int16ToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Float32ToInt16 encodes normalised float32 samples as little-endian int16
// PCM bytes, clamping values outside [-1, 1].
func Float32ToInt16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		s := int16(v * 32767.0)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// RMS returns the root-mean-square energy of the samples. Returns 0 for an
// empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Silence returns n bytes of PCM silence (all zero). Used by the speech gate
// to replace non-speech frames while preserving stream timing.
func Silence(n int) []byte { return make([]byte, n) }
