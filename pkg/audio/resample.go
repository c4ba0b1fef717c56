package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRate is returned by [Resample] when either sample rate is not a
// positive number.
var ErrInvalidRate = errors.New("invalid sample rate")

// sincTaps is the half-width of the interpolation kernel in source samples.
// 16 taps keeps the kernel short enough for real-time frames while staying
// close to an ideal low-pass response.
const sincTaps = 16

// Resample converts mono float32 samples from fromRate to toRate using
// windowed-sinc band-limited interpolation. The output length is always
// round(len(samples) · toRate / fromRate) and the result is deterministic
// for a given input.
//
// When fromRate == toRate the input slice is returned unchanged. When
// downsampling, the kernel cutoff is lowered to the output Nyquist frequency
// to suppress aliasing.
//
// Returns [ErrInvalidRate] if either rate is <= 0.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("audio: resample %d Hz -> %d Hz: %w", fromRate, toRate, ErrInvalidRate)
	}
	if fromRate == toRate {
		return samples, nil
	}
	if len(samples) == 0 {
		return nil, nil
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	out := make([]float32, outLen)

	// cutoff is the kernel's low-pass frequency relative to the source
	// Nyquist. 1.0 when upsampling; the downsampling ratio otherwise.
	cutoff := 1.0
	if ratio < 1 {
		cutoff = ratio
	}
	halfWidth := float64(sincTaps) / cutoff

	for i := range out {
		center := float64(i) / ratio

		lo := int(math.Ceil(center - halfWidth))
		hi := int(math.Floor(center + halfWidth))
		if lo < 0 {
			lo = 0
		}
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}

		var acc, norm float64
		for j := lo; j <= hi; j++ {
			d := float64(j) - center
			w := sinc(d*cutoff) * hann(d/halfWidth)
			acc += float64(samples[j]) * w
			norm += w
		}
		// Normalising by the weight sum keeps unity gain at the edges where
		// part of the kernel falls outside the buffer.
		if norm != 0 {
			out[i] = float32(acc / norm)
		}
	}
	return out, nil
}

// ResamplePCM16 converts little-endian int16 mono PCM bytes between sample
// rates via the float32 path of [Resample]. The identity case returns the
// input slice unchanged.
func ResamplePCM16(pcm []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate == toRate {
		if fromRate <= 0 {
			return nil, fmt.Errorf("audio: resample %d Hz -> %d Hz: %w", fromRate, toRate, ErrInvalidRate)
		}
		return pcm, nil
	}
	resampled, err := Resample(Int16ToFloat32(pcm), fromRate, toRate)
	if err != nil {
		return nil, err
	}
	return Float32ToInt16(resampled), nil
}

// sinc is the normalised sinc function sin(πx)/(πx).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// hann is the Hann window evaluated at t ∈ [-1, 1]; zero outside.
func hann(t float64) float64 {
	if t < -1 || t > 1 {
		return 0
	}
	return 0.5 + 0.5*math.Cos(math.Pi*t)
}
