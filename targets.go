package cgan_go

import (
	"fmt"

	"gorgonia.org/tensor"
)

// RealTargets Targets for samples that should be classified as real, with one-sided
// label smoothing applied: each target equals the smoothing factor instead of exact 1.
// Smoothing factor must lie in (0, 1]; factor 1.0 is equivalent to no smoothing.
func RealTargets(batchSize int, smoothing float64) (*tensor.Dense, error) {
	if smoothing <= 0 || smoothing > 1 {
		return nil, fmt.Errorf("Smoothing factor must be in (0, 1], but got %f", smoothing)
	}
	data := make([]float64, batchSize)
	for i := range data {
		data[i] = smoothing
	}
	return tensor.New(tensor.WithShape(batchSize, 1), tensor.WithBacking(data)), nil
}

// FakeTargets Zero targets for samples that should be classified as generated.
// Fake targets are never smoothed.
func FakeTargets(batchSize int) *tensor.Dense {
	return tensor.New(tensor.WithShape(batchSize, 1), tensor.WithBacking(make([]float64, batchSize)))
}
