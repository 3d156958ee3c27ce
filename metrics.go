package cgan_go

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// BinaryAccuracy Running binary accuracy over all Update calls since the last Reset.
// Probabilities are obtained from raw logits host-side; prediction threshold is 0.5.
// A smoothed "real" target (e.g. 0.9) still counts as the positive class.
type BinaryAccuracy struct {
	correct int
	total   int
}

func NewBinaryAccuracy() *BinaryAccuracy {
	return &BinaryAccuracy{}
}

// UpdateFromLogits Accumulate matches between thresholded sigmoid(logits) and targets.
func (m *BinaryAccuracy) UpdateFromLogits(logits, targets *tensor.Dense) error {
	logitsData, ok := logits.Data().([]float64)
	if !ok {
		return fmt.Errorf("Logits must be backed by []float64, but got %T", logits.Data())
	}
	targetsData, ok := targets.Data().([]float64)
	if !ok {
		return fmt.Errorf("Targets must be backed by []float64, but got %T", targets.Data())
	}
	if len(logitsData) != len(targetsData) {
		return fmt.Errorf("Logits and targets must have same number of elements, but got %d and %d", len(logitsData), len(targetsData))
	}
	for i := range logitsData {
		probability := 1.0 / (1.0 + math.Exp(-logitsData[i]))
		predictedReal := probability >= 0.5
		targetReal := targetsData[i] >= 0.5
		if predictedReal == targetReal {
			m.correct++
		}
		m.total++
	}
	return nil
}

// Value Returns accuracy accumulated to date. Zero before any update.
func (m *BinaryAccuracy) Value() float64 {
	if m.total == 0 {
		return 0.0
	}
	return float64(m.correct) / float64(m.total)
}

// Reset Drops the accumulated counts. Called by the trainer at epoch boundaries.
func (m *BinaryAccuracy) Reset() {
	m.correct = 0
	m.total = 0
}
