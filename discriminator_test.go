package cgan_go

import (
	"math/rand"
	"testing"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func testDiscriminatorConfig() DiscriminatorConfig {
	return DiscriminatorConfig{
		NumClasses:    2,
		EmbeddingSize: 4,
		Filters:       [2]int{8, 16},
		InputHeight:   4,
		InputWidth:    4,
	}
}

func TestDiscriminatorSingleLogitPerSample(t *testing.T) {
	rand.Seed(42)
	g := gorgonia.NewGraph()
	discriminator, err := NewDiscriminator(g, testDiscriminatorConfig())
	if err != nil {
		t.Fatalf("Can't init discriminator: %v", err)
	}
	batchSize := 5
	images := gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(batchSize, 1, 4, 4), gorgonia.WithName("test_images"))
	labels := gorgonia.NewTensor(g, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("test_labels"))
	if err := discriminator.Fwd(images, labels, batchSize); err != nil {
		t.Fatalf("Can't init feedforward: %v", err)
	}
	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()

	imagesData := make([]float64, batchSize*16)
	for i := range imagesData {
		imagesData[i] = 2.0*rand.Float64() - 1.0
	}
	if err := gorgonia.Let(images, tensor.New(tensor.WithShape(batchSize, 1, 4, 4), tensor.WithBacking(imagesData))); err != nil {
		t.Fatalf("Can't bind images: %v", err)
	}
	if err := gorgonia.Let(labels, tensor.New(tensor.WithShape(batchSize), tensor.WithBacking([]int{0, 1, 0, 1, 0}))); err != nil {
		t.Fatalf("Can't bind labels: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("Can't run VM: %v", err)
	}
	outShape := discriminator.Out().Shape()
	wantShape := tensor.Shape{batchSize, 1}
	if !outShape.Eq(wantShape) {
		t.Fatalf("Expected one scalar logit per input image (shape %v), but got %v", wantShape, outShape)
	}
}

func TestDiscriminatorConfigValidation(t *testing.T) {
	g := gorgonia.NewGraph()
	cfg := testDiscriminatorConfig()
	cfg.InputWidth = 10
	if _, err := NewDiscriminator(g, cfg); err == nil {
		t.Error("Expected error for input width not divisible by 4")
	}
	cfg = testDiscriminatorConfig()
	cfg.NumClasses = 0
	if _, err := NewDiscriminator(g, cfg); err == nil {
		t.Error("Expected error for zero classes")
	}
}
