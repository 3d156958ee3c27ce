package cgan_go

import (
	"math/rand"
	"testing"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func testGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		LatentSize:         8,
		NumClasses:         2,
		EmbeddingSize:      4,
		ProjectionChannels: 4,
		Filters:            [2]int{8, 4},
		OutputHeight:       4,
		OutputWidth:        4,
	}
}

func TestGeneratorOutputShapeAndRange(t *testing.T) {
	rand.Seed(42)
	g := gorgonia.NewGraph()
	generator, err := NewGenerator(g, testGeneratorConfig())
	if err != nil {
		t.Fatalf("Can't init generator: %v", err)
	}
	batchSize := 4
	latent := gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(batchSize, 8), gorgonia.WithName("test_latent"))
	labels := gorgonia.NewTensor(g, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("test_labels"))
	if err := generator.Fwd(latent, labels, batchSize); err != nil {
		t.Fatalf("Can't init feedforward: %v", err)
	}
	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := gorgonia.Let(latent, NormRandDense(batchSize, 8)); err != nil {
		t.Fatalf("Can't bind latent vectors: %v", err)
	}
	if err := gorgonia.Let(labels, tensor.New(tensor.WithShape(batchSize), tensor.WithBacking([]int{0, 1, 0, 1}))); err != nil {
		t.Fatalf("Can't bind labels: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("Can't run VM: %v", err)
	}
	outShape := generator.Out().Shape()
	wantShape := tensor.Shape{batchSize, 1, 4, 4}
	if !outShape.Eq(wantShape) {
		t.Fatalf("Expected output shape %v, but got %v", wantShape, outShape)
	}
	data := generator.Out().Value().Data().([]float64)
	for i, v := range data {
		if v < -1.0 || v > 1.0 {
			t.Errorf("Pixel #%d is out of saturating range [-1, 1]: %f", i, v)
		}
	}
}

func TestGeneratorDeterministicInference(t *testing.T) {
	rand.Seed(42)
	g := gorgonia.NewGraph()
	generator, err := NewGenerator(g, testGeneratorConfig())
	if err != nil {
		t.Fatalf("Can't init generator: %v", err)
	}
	batchSize := 2
	latent := gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(batchSize, 8), gorgonia.WithName("test_latent"))
	labels := gorgonia.NewTensor(g, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("test_labels"))
	if err := generator.Fwd(latent, labels, batchSize); err != nil {
		t.Fatalf("Can't init feedforward: %v", err)
	}
	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()

	latentValue := NormRandDense(batchSize, 8)
	labelsValue := tensor.New(tensor.WithShape(batchSize), tensor.WithBacking([]int{1, 0}))
	run := func() []float64 {
		if err := gorgonia.Let(latent, latentValue); err != nil {
			t.Fatalf("Can't bind latent vectors: %v", err)
		}
		if err := gorgonia.Let(labels, labelsValue); err != nil {
			t.Fatalf("Can't bind labels: %v", err)
		}
		if err := vm.RunAll(); err != nil {
			t.Fatalf("Can't run VM: %v", err)
		}
		data := generator.Out().Value().Data().([]float64)
		snapshot := make([]float64, len(data))
		copy(snapshot, data)
		vm.Reset()
		return snapshot
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Same latent vector and label must produce identical output without parameter updates, but pixel #%d differs: %f != %f", i, first[i], second[i])
		}
	}
}

func TestGeneratorConfigValidation(t *testing.T) {
	g := gorgonia.NewGraph()
	cfg := testGeneratorConfig()
	cfg.OutputHeight = 6
	if _, err := NewGenerator(g, cfg); err == nil {
		t.Error("Expected error for output height not divisible by 4")
	}
	cfg = testGeneratorConfig()
	cfg.LatentSize = 0
	if _, err := NewGenerator(g, cfg); err == nil {
		t.Error("Expected error for zero latent size")
	}
	cfg = testGeneratorConfig()
	cfg.Filters = [2]int{0, 4}
	if _, err := NewGenerator(g, cfg); err == nil {
		t.Error("Expected error for zero filters")
	}
}
