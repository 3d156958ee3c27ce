package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

type LossReduction uint16

const (
	LossReductionSum = LossReduction(iota)
	LossReductionMean
)

// LossFunc Loss between network's output and target values. Adversarial losses in this
// package take raw logits as the first argument.
type LossFunc func(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error)

func reduce(loss *gorgonia.Node, reduction []LossReduction) (*gorgonia.Node, error) {
	reductionDefault := LossReductionMean
	if len(reduction) != 0 {
		reductionDefault = reduction[0]
	}
	switch reductionDefault {
	case LossReductionSum:
		return gorgonia.Sum(loss)
	case LossReductionMean:
		return gorgonia.Mean(loss)
	default:
		return nil, fmt.Errorf("Reduction type %d is not supported", reductionDefault)
	}
}

// MSELoss See ref. https://en.wikipedia.org/wiki/Mean_squared_error
// Default reduction is 'mean'
func MSELoss(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error) {
	sub, err := gorgonia.Sub(a, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (A-B)")
	}
	sqr, err := gorgonia.Square(sub)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x^2)")
	}
	return reduce(sqr, reduction)
}

// SigmoidCrossEntropyLoss Binary cross entropy computed from raw logits:
//
//	loss{i} = b{i}*softplus(-a{i}) + (1-b{i})*softplus(a{i})
//
// which equals -b*log(sigmoid(a)) - (1-b)*log(1-sigmoid(a)) but never evaluates
// log of a value near zero, so it stays finite for logits of any magnitude.
// Default reduction is 'mean'
func SigmoidCrossEntropyLoss(a, b *gorgonia.Node, reduction ...LossReduction) (*gorgonia.Node, error) {
	negA, err := gorgonia.Neg(a)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do -1*x")
	}
	softplusNeg, err := gorgonia.Softplus(negA)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do softplus(-A)")
	}
	positiveTerm, err := gorgonia.HadamardProd(softplusNeg, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x.*B)")
	}
	softplusPos, err := gorgonia.Softplus(a)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do softplus(A)")
	}
	onesTensor := gorgonia.NewTensor(a.Graph(), a.Dtype(), a.Dims(), gorgonia.WithShape(a.Shape()...), gorgonia.WithInit(gorgonia.Ones()))
	oneMinusTargets, err := gorgonia.Sub(onesTensor, b)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (1-B)")
	}
	negativeTerm, err := gorgonia.HadamardProd(softplusPos, oneMinusTargets)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x.*(1-B))")
	}
	loss, err := gorgonia.Add(positiveTerm, negativeTerm)
	if err != nil {
		return nil, errors.Wrap(err, "Can't do (x+y)")
	}
	return reduce(loss, reduction)
}
