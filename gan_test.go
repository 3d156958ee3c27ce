package cgan_go

import (
	"math/rand"
	"testing"

	"gorgonia.org/gorgonia"
)

func TestGANGradientsThroughFrozenDiscriminator(t *testing.T) {
	rand.Seed(42)
	ganGraph := gorgonia.NewGraph()
	discGraph := gorgonia.NewGraph()
	generator, err := NewGenerator(ganGraph, testGeneratorConfig())
	if err != nil {
		t.Fatalf("Can't init generator: %v", err)
	}
	discriminator, err := NewDiscriminator(discGraph, testDiscriminatorConfig())
	if err != nil {
		t.Fatalf("Can't init discriminator: %v", err)
	}
	composite, err := NewGAN(ganGraph, generator, discriminator)
	if err != nil {
		t.Fatalf("Can't assemble GAN: %v", err)
	}
	batchSize := 4
	latent := gorgonia.NewMatrix(ganGraph, gorgonia.Float64, gorgonia.WithShape(batchSize, 8), gorgonia.WithName("test_latent"))
	labels := gorgonia.NewTensor(ganGraph, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("test_labels"))
	if err := generator.Fwd(latent, labels, batchSize); err != nil {
		t.Fatalf("Can't init generator's feedforward: %v", err)
	}
	if err := composite.Fwd(labels, batchSize); err != nil {
		t.Fatalf("Can't init GAN's feedforward: %v", err)
	}
	targets := gorgonia.NewMatrix(ganGraph, gorgonia.Float64, gorgonia.WithShape(batchSize, 1), gorgonia.WithName("test_targets"))
	loss, err := SigmoidCrossEntropyLoss(composite.Out(), targets)
	if err != nil {
		t.Fatalf("Can't build loss node: %v", err)
	}
	// Symbolic differentiation must pass from the frozen discriminator's conditioned
	// input (generated images concatenated channel-wise with the label map) back into
	// the generator's stack
	if _, err := gorgonia.Grad(loss, composite.Learnables()...); err != nil {
		t.Fatalf("Can't define gradients through the frozen discriminator: %v", err)
	}
}

func TestGANShapeAgreement(t *testing.T) {
	ganGraph := gorgonia.NewGraph()
	discGraph := gorgonia.NewGraph()
	generator, err := NewGenerator(ganGraph, testGeneratorConfig())
	if err != nil {
		t.Fatalf("Can't init generator: %v", err)
	}
	cfg := testDiscriminatorConfig()
	cfg.InputHeight = 8
	cfg.InputWidth = 8
	discriminator, err := NewDiscriminator(discGraph, cfg)
	if err != nil {
		t.Fatalf("Can't init discriminator: %v", err)
	}
	if _, err := NewGAN(ganGraph, generator, discriminator); err == nil {
		t.Error("Expected error for mismatched generator output and discriminator input sizes")
	}
}
