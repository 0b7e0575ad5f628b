package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms data after zero padding it to a power of two, so bin k
// of the result sits at k/(len*dt) for the padded length.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n == 0 {
		return nil
	}
	if p := nextPow2(n); p != n {
		padded := make([]float64, p)
		copy(padded, data)
		data = padded
	}
	return fft.FFTReal(data)
}

// PowerSpectrum is the magnitude of the first half of the padded FFT.
func PowerSpectrum(data []float64) []float64 {
	spec := FFT(data)
	ps := make([]float64, len(spec)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}

	return ps
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
