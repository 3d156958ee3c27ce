package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// GeneratorConfig Structural parameters for the conditional generator.
//
// OutputHeight and OutputWidth must be divisible by 4: the latent projection starts at
// a quarter of the target resolution and is doubled twice by the upsampling stack.
//
type GeneratorConfig struct {
	LatentSize         int
	NumClasses         int
	EmbeddingSize      int
	ProjectionChannels int
	Filters            [2]int
	OutputHeight       int
	OutputWidth        int
	// LeakyAlpha Negative slope of leaky ReLU activations; DefaultLeakyAlpha when zero
	LeakyAlpha float64
}

func (cfg *GeneratorConfig) validate() error {
	if cfg.LatentSize < 1 {
		return fmt.Errorf("Latent size must be positive, but got %d", cfg.LatentSize)
	}
	if cfg.NumClasses < 1 {
		return fmt.Errorf("Number of classes must be positive, but got %d", cfg.NumClasses)
	}
	if cfg.EmbeddingSize < 1 {
		return fmt.Errorf("Embedding size must be positive, but got %d", cfg.EmbeddingSize)
	}
	if cfg.ProjectionChannels < 1 {
		return fmt.Errorf("Number of projection channels must be positive, but got %d", cfg.ProjectionChannels)
	}
	if cfg.Filters[0] < 1 || cfg.Filters[1] < 1 {
		return fmt.Errorf("Numbers of filters must be positive, but got %v", cfg.Filters)
	}
	if cfg.OutputHeight < 4 || cfg.OutputHeight%4 != 0 {
		return fmt.Errorf("Output height must be positive and divisible by 4, but got %d", cfg.OutputHeight)
	}
	if cfg.OutputWidth < 4 || cfg.OutputWidth%4 != 0 {
		return fmt.Errorf("Output width must be positive and divisible by 4, but got %d", cfg.OutputWidth)
	}
	return nil
}

// GeneratorNet Conditional generator: (latent vector, class label) -> single-channel image.
//
// Latent vector is linearly projected to a small spatial tensor, the label is embedded
// into a conditioning map of the same spatial size, both are concatenated channel-wise
// and upsampled twice (nearest-neighbor resize followed by a stride-1 convolution and
// batch normalization) up to the target resolution. Final stride-1 convolution with Tanh
// bounds pixel values to [-1, 1].
//
type GeneratorNet struct {
	graph *gorgonia.ExprGraph
	cfg   GeneratorConfig

	embedder   *LabelEmbedder
	projection *Network
	stack      *Network

	out *gorgonia.Node
}

// NewGenerator Constructor for GeneratorNet. Learnable nodes are placed on provided graph.
func NewGenerator(g *gorgonia.ExprGraph, cfg GeneratorConfig) (*GeneratorNet, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "[Generator]")
	}
	if cfg.LeakyAlpha <= 0 {
		cfg.LeakyAlpha = DefaultLeakyAlpha
	}
	projHeight := cfg.OutputHeight / 4
	projWidth := cfg.OutputWidth / 4
	projSize := cfg.ProjectionChannels * projHeight * projWidth

	embedder, err := NewLabelEmbedder(g, "generator_embedder", cfg.NumClasses, cfg.EmbeddingSize, projHeight, projWidth)
	if err != nil {
		return nil, errors.Wrap(err, "[Generator]")
	}

	projection := &Network{
		Name: "generator_projection",
		Layers: []*Layer{
			{
				WeightNode: gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(projSize, cfg.LatentSize), gorgonia.WithName("generator_proj_w"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				BiasNode:   gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(1, projSize), gorgonia.WithName("generator_proj_b"), gorgonia.WithInit(gorgonia.Zeroes())),
				Type:       LayerLinear,
				Activation: LeakyRectify,
				Options:    &Options{Alpha: cfg.LeakyAlpha},
			},
			{
				Type:        LayerReshape,
				ReshapeDims: []int{cfg.ProjectionChannels, projHeight, projWidth},
				Activation:  NoActivation,
			},
		},
	}

	// Channel axis after concatenation: projection channels plus one conditioning map
	inChannels := cfg.ProjectionChannels + 1
	stack := &Network{
		Name: "generator_stack",
		Layers: []*Layer{
			{
				Type:       LayerUpsample,
				Activation: NoActivation,
				Options:    &Options{UpsampleScale: 2},
			},
			{
				WeightNode:   gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(cfg.Filters[0], inChannels, 3, 3), gorgonia.WithName("generator_conv_w0"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				Type:         LayerConvolutional,
				Activation:   NoActivation,
				KernelHeight: 3,
				KernelWidth:  3,
				Padding:      []int{1, 1},
				Stride:       []int{1, 1},
				Dilation:     []int{1, 1},
			},
			{
				Type:       LayerBatchNorm,
				Activation: LeakyRectify,
				Options:    &Options{Alpha: cfg.LeakyAlpha},
			},
			{
				Type:       LayerUpsample,
				Activation: NoActivation,
				Options:    &Options{UpsampleScale: 2},
			},
			{
				WeightNode:   gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(cfg.Filters[1], cfg.Filters[0], 3, 3), gorgonia.WithName("generator_conv_w1"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				Type:         LayerConvolutional,
				Activation:   NoActivation,
				KernelHeight: 3,
				KernelWidth:  3,
				Padding:      []int{1, 1},
				Stride:       []int{1, 1},
				Dilation:     []int{1, 1},
			},
			{
				Type:       LayerBatchNorm,
				Activation: LeakyRectify,
				Options:    &Options{Alpha: cfg.LeakyAlpha},
			},
			{
				WeightNode:   gorgonia.NewTensor(g, gorgonia.Float64, 4, gorgonia.WithShape(1, cfg.Filters[1], 3, 3), gorgonia.WithName("generator_conv_w2"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
				Type:         LayerConvolutional,
				Activation:   Tanh,
				KernelHeight: 3,
				KernelWidth:  3,
				Padding:      []int{1, 1},
				Stride:       []int{1, 1},
				Dilation:     []int{1, 1},
			},
		},
	}

	return &GeneratorNet{
		graph:      g,
		cfg:        cfg,
		embedder:   embedder,
		projection: projection,
		stack:      stack,
	}, nil
}

// Out Returns reference to output node
func (net *GeneratorNet) Out() *gorgonia.Node {
	return net.out
}

// Config Returns copy of structural parameters
func (net *GeneratorNet) Config() GeneratorConfig {
	return net.cfg
}

// Learnables Returns learnables nodes
func (net *GeneratorNet) Learnables() gorgonia.Nodes {
	learnables := net.projection.Learnables()
	learnables = append(learnables, net.embedder.Learnables()...)
	learnables = append(learnables, net.stack.Learnables()...)
	return learnables
}

// Fwd Initializates feedforward for provided latent vectors and class labels
//
// latent - input node of shape (batchSize, LatentSize)
// labels - input node holding integer class indices, shape (batchSize,)
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
func (net *GeneratorNet) Fwd(latent, labels *gorgonia.Node, batchSize int) error {
	if err := net.projection.Fwd(latent, batchSize); err != nil {
		return errors.Wrap(err, "[Generator] Can't feedforward latent vectors through projection")
	}
	if err := net.embedder.Fwd(labels, batchSize); err != nil {
		return errors.Wrap(err, "[Generator] Can't feedforward labels through embedder")
	}
	conditioned, err := gorgonia.Concat(1, net.projection.Out(), net.embedder.Out())
	if err != nil {
		return errors.Wrap(err, "[Generator] Can't concatenate projection with conditioning map")
	}
	gorgonia.WithName("generator_conditioned")(conditioned)
	if err := net.stack.Fwd(conditioned, batchSize); err != nil {
		return errors.Wrap(err, "[Generator] Can't feedforward conditioned tensor through upsampling stack")
	}
	net.out = net.stack.Out()
	return nil
}
