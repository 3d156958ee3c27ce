package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer Just an alias to Weight+Bias+ActivationFunction combo
//
// WeightNode - learnable weights (embedding table for LayerEmbedding, kernel for LayerConvolutional)
// BiasNode - optional learnable bias
// Options - extra parameters for certain layer types and activations
//
type Layer struct {
	WeightNode *gorgonia.Node
	BiasNode   *gorgonia.Node
	Activation ActivationFunc
	Type       LayerType
	Options    *Options

	KernelHeight int
	KernelWidth  int
	Padding      []int
	Stride       []int
	Dilation     []int
	// ReshapeDims Per-sample dimensions; batch size is prepended on feedforward
	ReshapeDims []int
}

type LayerType uint16

const (
	LayerLinear = LayerType(iota)
	LayerFlatten
	LayerConvolutional
	LayerMaxpool
	LayerReshape
	LayerEmbedding
	LayerUpsample
	LayerBatchNorm
)

var (
	allowedNoWeights = []LayerType{LayerMaxpool, LayerFlatten, LayerReshape, LayerUpsample, LayerBatchNorm}
)

func noWeightsAllowed(checkType LayerType) bool {
	return checkLayerType(checkType, allowedNoWeights...)
}

func checkLayerType(checkType LayerType, t ...LayerType) bool {
	for _, typeOf := range t {
		if checkType == typeOf {
			return true
		}
	}
	return false
}

const (
	defaultBatchNormMomentum = 0.1
	defaultBatchNormEpsilon  = 1e-5
)

// Fwd Feedforward provided input through the layer (activation is NOT applied here).
//
// batchSize - batch size. If it's >= 2 then broadcast function will be applied for bias addition
// input - previous layer's activated output (or network input)
//
func (l *Layer) Fwd(batchSize int, input *gorgonia.Node) (*gorgonia.Node, error) {
	var err error
	nonActivated := &gorgonia.Node{}
	switch l.Type {
	case LayerLinear:
		tOp, err := gorgonia.Transpose(l.WeightNode)
		if err != nil {
			return nil, errors.Wrap(err, "Can't transpose weights")
		}
		nonActivated, err = gorgonia.Mul(input, tOp)
		if err != nil {
			return nil, errors.Wrap(err, "Can't multiply input and weights")
		}
	case LayerConvolutional:
		nonActivated, err = gorgonia.Conv2d(input, l.WeightNode, tensor.Shape{l.KernelHeight, l.KernelWidth}, l.Padding, l.Stride, l.Dilation)
		if err != nil {
			return nil, errors.Wrap(err, "Can't convolve[2D] input by kernel")
		}
	case LayerMaxpool:
		nonActivated, err = gorgonia.MaxPool2D(input, tensor.Shape{l.KernelHeight, l.KernelWidth}, l.Padding, l.Stride)
		if err != nil {
			return nil, errors.Wrap(err, "Can't maxpool[2D] input by kernel")
		}
	case LayerFlatten:
		nonActivated, err = gorgonia.Reshape(input, tensor.Shape{batchSize, input.Shape().TotalSize() / batchSize})
		if err != nil {
			return nil, errors.Wrap(err, "Can't flatten input")
		}
	case LayerReshape:
		dims := append([]int{batchSize}, l.ReshapeDims...)
		nonActivated, err = gorgonia.Reshape(input, dims)
		if err != nil {
			return nil, errors.Wrap(err, "Can't reshape input")
		}
	case LayerEmbedding:
		nonActivated, err = gorgonia.ByIndices(l.WeightNode, input, 0)
		if err != nil {
			return nil, errors.Wrap(err, "Can't look up embedding rows by indices")
		}
	case LayerUpsample:
		scale := 2
		if l.Options != nil && l.Options.UpsampleScale > 0 {
			scale = l.Options.UpsampleScale
		}
		nonActivated, err = gorgonia.Upsample2D(input, scale)
		if err != nil {
			return nil, errors.Wrap(err, "Can't upsample[2D] input")
		}
	case LayerBatchNorm:
		momentum := defaultBatchNormMomentum
		epsilon := defaultBatchNormEpsilon
		if l.Options != nil && l.Options.Momentum > 0 {
			momentum = l.Options.Momentum
		}
		if l.Options != nil && l.Options.Epsilon > 0 {
			epsilon = l.Options.Epsilon
		}
		// Constant unit scale and zero shift: pure normalization, no affine pair to train
		scaleNode := gorgonia.NewTensor(input.Graph(), input.Dtype(), input.Dims(), gorgonia.WithShape(input.Shape()...), gorgonia.WithName(input.Name()+"_bn_scale"), gorgonia.WithInit(gorgonia.Ones()))
		biasNode := gorgonia.NewTensor(input.Graph(), input.Dtype(), input.Dims(), gorgonia.WithShape(input.Shape()...), gorgonia.WithName(input.Name()+"_bn_bias"), gorgonia.WithInit(gorgonia.Zeroes()))
		nonActivated, _, _, _, err = gorgonia.BatchNorm(input, scaleNode, biasNode, momentum, epsilon)
		if err != nil {
			return nil, errors.Wrap(err, "Can't apply batch normalization to input")
		}
	default:
		return nil, fmt.Errorf("Layer type '%d' (uint16) is not handled", l.Type)
	}
	if l.BiasNode != nil {
		if batchSize < 2 {
			nonActivated, err = gorgonia.Add(nonActivated, l.BiasNode)
			if err != nil {
				return nil, errors.Wrap(err, "Can't add bias to non-activated output")
			}
		} else {
			nonActivated, err = gorgonia.BroadcastAdd(nonActivated, l.BiasNode, nil, []byte{0})
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("Can't add bias [in broadcast term with batch_size = %d] to non-activated output", batchSize))
			}
		}
	}
	return nonActivated, nil
}

// activate Apply layer's activation function honoring layer-level options
func (l *Layer) activate(nonActivated *gorgonia.Node) (*gorgonia.Node, error) {
	if l.Activation == nil {
		return nonActivated, nil
	}
	if l.Options != nil {
		return l.Activation(nonActivated, *l.Options)
	}
	return l.Activation(nonActivated)
}
