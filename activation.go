package cgan_go

import (
	"gorgonia.org/gorgonia"
)

// ActivationFunc Element-wise non-linearity applied to a layer's output.
// Mostly thin aliases to Gorgonia's api_gen.go - https://github.com/gorgonia/gorgonia/blob/master/api_gen.go#L1
type ActivationFunc func(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)

func NoActivation(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error) { return a, nil }
func Abs(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)          { return gorgonia.Abs(a) }
func Exp(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)          { return gorgonia.Exp(a) }
func Log(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)          { return gorgonia.Log(a) }
func Neg(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)          { return gorgonia.Neg(a) }
func Square(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)       { return gorgonia.Square(a) }
func Sqrt(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)         { return gorgonia.Sqrt(a) }
func Tanh(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)         { return gorgonia.Tanh(a) }
func Sigmoid(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)      { return gorgonia.Sigmoid(a) }
func Softplus(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)     { return gorgonia.Softplus(a) }
func Rectify(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error)      { return gorgonia.Rectify(a) }

// DefaultLeakyAlpha Negative slope for LeakyRectify when no option is provided
const DefaultLeakyAlpha = 0.2

// LeakyRectify Leaky ReLU.
// First i-th option with positive field 'Alpha' overrides the default negative slope.
func LeakyRectify(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error) {
	alpha := DefaultLeakyAlpha
	for i := range opts {
		if opts[i].Alpha > 0 {
			alpha = opts[i].Alpha
			break
		}
	}
	return gorgonia.LeakyRelu(a, alpha)
}

// Softmax First i-th option with provided field 'Axis' would be considered for use.
func Softmax(a *gorgonia.Node, opts ...Options) (*gorgonia.Node, error) {
	for i := range opts {
		if len(opts[i].Axis) > 0 {
			return gorgonia.SoftMax(a, opts[i].Axis...)
		}
	}
	return gorgonia.SoftMax(a)
}

// Options Struct for holding options for certain activation functions and layer types.
type Options struct {
	// Axis Softmax axis
	Axis []int
	// Alpha Negative slope for LeakyRectify
	Alpha float64
	// EmbeddingSize Width of each embedding table row (LayerEmbedding)
	EmbeddingSize int
	// UpsampleScale Scale factor for LayerUpsample (defaults to 2 when zero)
	UpsampleScale int
	// Momentum, Epsilon Batch normalization parameters (LayerBatchNorm)
	Momentum float64
	Epsilon  float64
}
