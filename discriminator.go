package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// DiscriminatorConfig Structural parameters for the conditional discriminator.
//
// InputHeight and InputWidth must be divisible by 4: the downsampling stack halves
// the spatial resolution twice before flattening.
//
type DiscriminatorConfig struct {
	NumClasses    int
	EmbeddingSize int
	Filters       [2]int
	InputHeight   int
	InputWidth    int
	// LeakyAlpha Negative slope of leaky ReLU activations; DefaultLeakyAlpha when zero
	LeakyAlpha float64
}

func (cfg *DiscriminatorConfig) validate() error {
	if cfg.NumClasses < 1 {
		return fmt.Errorf("Number of classes must be positive, but got %d", cfg.NumClasses)
	}
	if cfg.EmbeddingSize < 1 {
		return fmt.Errorf("Embedding size must be positive, but got %d", cfg.EmbeddingSize)
	}
	if cfg.Filters[0] < 1 || cfg.Filters[1] < 1 {
		return fmt.Errorf("Numbers of filters must be positive, but got %v", cfg.Filters)
	}
	if cfg.InputHeight < 4 || cfg.InputHeight%4 != 0 {
		return fmt.Errorf("Input height must be positive and divisible by 4, but got %d", cfg.InputHeight)
	}
	if cfg.InputWidth < 4 || cfg.InputWidth%4 != 0 {
		return fmt.Errorf("Input width must be positive and divisible by 4, but got %d", cfg.InputWidth)
	}
	return nil
}

// DiscriminatorNet Conditional discriminator: (image, class label) -> real/fake logit.
//
// The label is embedded into a conditioning map at image resolution and concatenated
// with the image channel-wise; the result is downsampled by strided convolutions to a
// single raw logit per sample. No output non-linearity: the logit is meant to be fed
// into a numerically stable sigmoid cross-entropy loss.
//
type DiscriminatorNet struct {
	graph *gorgonia.ExprGraph
	name  string
	cfg   DiscriminatorConfig

	embedder *LabelEmbedder
	stack    *Network

	out *gorgonia.Node
}

// NewDiscriminator Constructor for DiscriminatorNet. Learnable nodes are placed on provided graph.
func NewDiscriminator(g *gorgonia.ExprGraph, cfg DiscriminatorConfig) (*DiscriminatorNet, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "[Discriminator]")
	}
	if cfg.LeakyAlpha <= 0 {
		cfg.LeakyAlpha = DefaultLeakyAlpha
	}
	return newDiscriminatorNamed(g, "discriminator", cfg)
}

func newDiscriminatorNamed(g *gorgonia.ExprGraph, name string, cfg DiscriminatorConfig) (*DiscriminatorNet, error) {
	embedder, err := NewLabelEmbedder(g, name+"_embedder", cfg.NumClasses, cfg.EmbeddingSize, cfg.InputHeight, cfg.InputWidth)
	if err != nil {
		return nil, errors.Wrap(err, "[Discriminator]")
	}
	// Image channel plus one conditioning map
	inChannels := 2
	flatSize := cfg.Filters[1] * (cfg.InputHeight / 4) * (cfg.InputWidth / 4)
	stack := &Network{
		Name: name + "_stack",
		Layers: []*Layer{
			{
				WeightNode:   gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(cfg.Filters[0], inChannels, 3, 3), gorgonia.WithName(name+"_conv_w0"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				Type:         LayerConvolutional,
				Activation:   LeakyRectify,
				Options:      &Options{Alpha: cfg.LeakyAlpha},
				KernelHeight: 3,
				KernelWidth:  3,
				Padding:      []int{1, 1},
				Stride:       []int{2, 2},
				Dilation:     []int{1, 1},
			},
			{
				WeightNode:   gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(cfg.Filters[1], cfg.Filters[0], 3, 3), gorgonia.WithName(name+"_conv_w1"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				Type:         LayerConvolutional,
				Activation:   NoActivation,
				KernelHeight: 3,
				KernelWidth:  3,
				Padding:      []int{1, 1},
				Stride:       []int{2, 2},
				Dilation:     []int{1, 1},
			},
			{
				Type:       LayerBatchNorm,
				Activation: LeakyRectify,
				Options:    &Options{Alpha: cfg.LeakyAlpha},
			},
			{
				Type:       LayerFlatten,
				Activation: NoActivation,
			},
			{
				WeightNode: gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(1, flatSize), gorgonia.WithName(name+"_head_w"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				BiasNode:   gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(1, 1), gorgonia.WithName(name+"_head_b"), gorgonia.WithInit(gorgonia.Zeroes())),
				Type:       LayerLinear,
				Activation: NoActivation,
			},
		},
	}
	return &DiscriminatorNet{
		graph:    g,
		name:     name,
		cfg:      cfg,
		embedder: embedder,
		stack:    stack,
	}, nil
}

// Out Returns reference to output node
func (net *DiscriminatorNet) Out() *gorgonia.Node {
	return net.out
}

// Config Returns copy of structural parameters
func (net *DiscriminatorNet) Config() DiscriminatorConfig {
	return net.cfg
}

// Learnables Returns learnables nodes
func (net *DiscriminatorNet) Learnables() gorgonia.Nodes {
	learnables := net.embedder.Learnables()
	learnables = append(learnables, net.stack.Learnables()...)
	return learnables
}

// Fwd Initializates feedforward for provided images and class labels
//
// images - input node of shape (batchSize, 1, InputHeight, InputWidth)
// labels - input node holding integer class indices, shape (batchSize,)
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
func (net *DiscriminatorNet) Fwd(images, labels *gorgonia.Node, batchSize int) error {
	if err := net.embedder.Fwd(labels, batchSize); err != nil {
		return errors.Wrap(err, "[Discriminator] Can't feedforward labels through embedder")
	}
	// Identity reshape: the gradient sliced back out of the concatenation loses the
	// width-1 channel axis, and reshape's backward restores it
	imagesShaped, err := gorgonia.Reshape(images, images.Shape())
	if err != nil {
		return errors.Wrap(err, "[Discriminator] Can't reshape images before conditioning")
	}
	conditioned, err := gorgonia.Concat(1, imagesShaped, net.embedder.Out())
	if err != nil {
		return errors.Wrap(err, "[Discriminator] Can't concatenate images with conditioning map")
	}
	gorgonia.WithName(net.name + "_conditioned")(conditioned)
	if err := net.stack.Fwd(conditioned, batchSize); err != nil {
		return errors.Wrap(err, "[Discriminator] Can't feedforward conditioned tensor through downsampling stack")
	}
	net.out = net.stack.Out()
	return nil
}

// cloneTo Copy of discriminator's structure on another graph. Weight nodes of the copy
// share backing values with the source (see LabelEmbedder.cloneTo), so the copy always
// evaluates with the source's current parameters but is never updated itself.
func (net *DiscriminatorNet) cloneTo(g *gorgonia.ExprGraph, suffix string) (*DiscriminatorNet, error) {
	layers := make([]*Layer, len(net.stack.Layers))
	for i, l := range net.stack.Layers {
		if l.WeightNode == nil && !noWeightsAllowed(l.Type) {
			return nil, fmt.Errorf("Discriminator's layer %d has nil weight node", i)
		}
		layers[i] = &Layer{
			Activation:   l.Activation,
			Type:         l.Type,
			Options:      l.Options,
			KernelHeight: l.KernelHeight,
			KernelWidth:  l.KernelWidth,
			Padding:      l.Padding,
			Stride:       l.Stride,
			Dilation:     l.Dilation,
			ReshapeDims:  l.ReshapeDims,
		}
		if l.WeightNode != nil {
			layers[i].WeightNode = gorgonia.NewTensor(g, gorgonia.Float64, l.WeightNode.Dims(), gorgonia.WithShape(l.WeightNode.Shape()...), gorgonia.WithName(l.WeightNode.Name()+suffix), gorgonia.WithValue(l.WeightNode.Value()))
		}
		if l.BiasNode != nil {
			layers[i].BiasNode = gorgonia.NewTensor(g, gorgonia.Float64, l.BiasNode.Dims(), gorgonia.WithShape(l.BiasNode.Shape()...), gorgonia.WithName(l.BiasNode.Name()+suffix), gorgonia.WithValue(l.BiasNode.Value()))
		}
	}
	return &DiscriminatorNet{
		graph:    g,
		name:     net.name + suffix,
		cfg:      net.cfg,
		embedder: net.embedder.cloneTo(g, suffix),
		stack: &Network{
			Name:   net.stack.Name + suffix,
			Layers: layers,
		},
	}, nil
}
