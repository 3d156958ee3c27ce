package cgan_go

import (
	"math/rand"
	"testing"

	"gorgonia.org/tensor"
)

func TestTrainSetBatchCorrespondence(t *testing.T) {
	numSamples := 6
	pixels := 4
	imagesData := make([]float64, numSamples*pixels)
	labelsData := make([]int, numSamples)
	for i := 0; i < numSamples; i++ {
		labelsData[i] = i
		for p := 0; p < pixels; p++ {
			imagesData[i*pixels+p] = float64(i)
		}
	}
	set, err := NewTrainSet(
		tensor.New(tensor.WithShape(numSamples, 1, 2, 2), tensor.WithBacking(imagesData)),
		tensor.New(tensor.WithShape(numSamples), tensor.WithBacking(labelsData)),
	)
	if err != nil {
		t.Fatalf("Can't init train set: %v", err)
	}
	if set.NumBatches(2) != 3 {
		t.Errorf("Expected 3 batches of size 2, but got %d", set.NumBatches(2))
	}
	images, labels, err := set.Batch(1, 2)
	if err != nil {
		t.Fatalf("Can't extract batch: %v", err)
	}
	wantImagesShape := tensor.Shape{2, 1, 2, 2}
	if !images.Shape().Eq(wantImagesShape) {
		t.Fatalf("Expected images shape %v, but got %v", wantImagesShape, images.Shape())
	}
	gotLabels := labels.Data().([]int)
	if gotLabels[0] != 2 || gotLabels[1] != 3 {
		t.Errorf("Expected labels [2 3], but got %v", gotLabels)
	}
	gotImages := images.Data().([]float64)
	for p := 0; p < pixels; p++ {
		if gotImages[p] != 2.0 {
			t.Errorf("Image #0 of batch #1 must keep correspondence with label 2, but pixel %d is %f", p, gotImages[p])
		}
		if gotImages[pixels+p] != 3.0 {
			t.Errorf("Image #1 of batch #1 must keep correspondence with label 3, but pixel %d is %f", p, gotImages[pixels+p])
		}
	}
}

func TestTrainSetBatchOutOfRange(t *testing.T) {
	set, err := GenerateSymbolSet(4, 0.0)
	if err != nil {
		t.Fatalf("Can't generate set: %v", err)
	}
	if _, _, err := set.Batch(2, 2); err == nil {
		t.Error("Expected error for batch out of range")
	}
}

func TestTrainSetValidation(t *testing.T) {
	images := tensor.New(tensor.WithShape(2, 1, 2, 2), tensor.WithBacking(make([]float64, 8)))
	labels := tensor.New(tensor.WithShape(3), tensor.WithBacking(make([]int, 3)))
	if _, err := NewTrainSet(images, labels); err == nil {
		t.Error("Expected error for mismatched images/labels lengths")
	}
}

func TestGenerateSymbolSet(t *testing.T) {
	rand.Seed(42)
	numSamples := 16
	set, err := GenerateSymbolSet(numSamples, 0.1)
	if err != nil {
		t.Fatalf("Can't generate set: %v", err)
	}
	wantShape := tensor.Shape{numSamples, 1, SymbolSide, SymbolSide}
	if !set.Images.Shape().Eq(wantShape) {
		t.Fatalf("Expected images shape %v, but got %v", wantShape, set.Images.Shape())
	}
	for _, v := range set.Images.Data().([]float64) {
		if v < -1.0 || v > 1.0 {
			t.Errorf("Pixel value out of range [-1, 1]: %f", v)
		}
	}
	for _, label := range set.Labels.Data().([]int) {
		if label < 0 || label >= SymbolClasses {
			t.Errorf("Label out of range [0, %d): %d", SymbolClasses, label)
		}
	}
}

func TestNormRandDenseShape(t *testing.T) {
	rand.Seed(42)
	noise := NormRandDense(3, 5)
	wantShape := tensor.Shape{3, 5}
	if !noise.Shape().Eq(wantShape) {
		t.Fatalf("Expected shape %v, but got %v", wantShape, noise.Shape())
	}
	// Independent draws: two consecutive tensors must differ somewhere
	other := NormRandDense(3, 5)
	same := true
	noiseData := noise.Data().([]float64)
	otherData := other.Data().([]float64)
	for i := range noiseData {
		if noiseData[i] != otherData[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Two consecutive latent draws must be independent, but they are identical")
	}
}
