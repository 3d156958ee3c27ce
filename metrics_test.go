package cgan_go

import (
	"testing"

	"gorgonia.org/tensor"
)

func denseOf(values ...float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(len(values), 1), tensor.WithBacking(values))
}

func TestBinaryAccuracyRunningAverage(t *testing.T) {
	m := NewBinaryAccuracy()
	if m.Value() != 0.0 {
		t.Errorf("Expected zero accuracy before any update, but got %f", m.Value())
	}
	// Both predictions match their targets
	if err := m.UpdateFromLogits(denseOf(2.0, -2.0), denseOf(1.0, 0.0)); err != nil {
		t.Fatalf("Can't update accuracy: %v", err)
	}
	if m.Value() != 1.0 {
		t.Errorf("Expected accuracy 1.0, but got %f", m.Value())
	}
	// Smoothed real target still counts as the positive class; this prediction misses it
	if err := m.UpdateFromLogits(denseOf(-2.0), denseOf(0.9)); err != nil {
		t.Fatalf("Can't update accuracy: %v", err)
	}
	want := 2.0 / 3.0
	if m.Value() != want {
		t.Errorf("Expected running accuracy %f, but got %f", want, m.Value())
	}
}

func TestBinaryAccuracyReset(t *testing.T) {
	m := NewBinaryAccuracy()
	if err := m.UpdateFromLogits(denseOf(1.0), denseOf(0.0)); err != nil {
		t.Fatalf("Can't update accuracy: %v", err)
	}
	m.Reset()
	if m.Value() != 0.0 {
		t.Errorf("Expected zero accuracy after reset, but got %f", m.Value())
	}
	if err := m.UpdateFromLogits(denseOf(1.0), denseOf(1.0)); err != nil {
		t.Fatalf("Can't update accuracy: %v", err)
	}
	if m.Value() != 1.0 {
		t.Errorf("Expected accuracy 1.0 after reset and one correct update, but got %f", m.Value())
	}
}

func TestBinaryAccuracyMismatchedLengths(t *testing.T) {
	m := NewBinaryAccuracy()
	if err := m.UpdateFromLogits(denseOf(1.0, 2.0), denseOf(1.0)); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
}

func TestRealTargetsSmoothing(t *testing.T) {
	targets, err := RealTargets(3, 0.9)
	if err != nil {
		t.Fatalf("Can't build targets: %v", err)
	}
	for _, v := range targets.Data().([]float64) {
		if v != 0.9 {
			t.Errorf("Expected smoothed target 0.9, but got %f", v)
		}
	}
}

func TestRealTargetsNoSmoothingEquivalence(t *testing.T) {
	targets, err := RealTargets(2, 1.0)
	if err != nil {
		t.Fatalf("Smoothing factor 1.0 must be accepted: %v", err)
	}
	for _, v := range targets.Data().([]float64) {
		if v != 1.0 {
			t.Errorf("Smoothing factor 1.0 must keep real targets exactly 1, but got %f", v)
		}
	}
}

func TestRealTargetsFactorDomain(t *testing.T) {
	if _, err := RealTargets(2, 0.0); err == nil {
		t.Error("Expected error for zero smoothing factor")
	}
	if _, err := RealTargets(2, -0.5); err == nil {
		t.Error("Expected error for negative smoothing factor")
	}
	if _, err := RealTargets(2, 1.5); err == nil {
		t.Error("Expected error for smoothing factor above 1")
	}
}

func TestFakeTargetsAreZero(t *testing.T) {
	targets := FakeTargets(4)
	for _, v := range targets.Data().([]float64) {
		if v != 0.0 {
			t.Errorf("Fake targets must never be smoothed, but got %f", v)
		}
	}
}
