package cgan_go

import (
	"testing"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestLabelEmbedderSpatialShape(t *testing.T) {
	g := gorgonia.NewGraph()
	embedder, err := NewLabelEmbedder(g, "test_embedder", 10, 6, 4, 4)
	if err != nil {
		t.Fatalf("Can't init embedder: %v", err)
	}
	batchSize := 3
	labels := gorgonia.NewTensor(g, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("test_labels"))
	if err := embedder.Fwd(labels, batchSize); err != nil {
		t.Fatalf("Can't init feedforward: %v", err)
	}
	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := gorgonia.Let(labels, tensor.New(tensor.WithShape(batchSize), tensor.WithBacking([]int{0, 5, 9}))); err != nil {
		t.Fatalf("Can't bind labels: %v", err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatalf("Can't run VM: %v", err)
	}
	outShape := embedder.Out().Shape()
	wantShape := tensor.Shape{batchSize, 1, 4, 4}
	if !outShape.Eq(wantShape) {
		t.Errorf("Expected output shape %v, but got %v", wantShape, outShape)
	}
}

func TestLabelEmbedderLearnables(t *testing.T) {
	g := gorgonia.NewGraph()
	embedder, err := NewLabelEmbedder(g, "test_embedder", 4, 3, 2, 2)
	if err != nil {
		t.Fatalf("Can't init embedder: %v", err)
	}
	if len(embedder.Learnables()) != 3 {
		t.Errorf("Expected 3 learnable nodes (table, projection, bias), but got %d", len(embedder.Learnables()))
	}
}

func TestLabelEmbedderValidation(t *testing.T) {
	g := gorgonia.NewGraph()
	if _, err := NewLabelEmbedder(g, "test_embedder", 0, 3, 2, 2); err == nil {
		t.Error("Expected error for zero classes")
	}
	if _, err := NewLabelEmbedder(g, "test_embedder", 4, 0, 2, 2); err == nil {
		t.Error("Expected error for zero embedding size")
	}
	if _, err := NewLabelEmbedder(g, "test_embedder", 4, 3, 0, 2); err == nil {
		t.Error("Expected error for zero spatial size")
	}
}
