package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// GAN Composite used for the generator's training step.
//
// generatorPart - reference to GeneratorNet
// discriminatorPart - reference to trainable DiscriminatorNet (lives on its own graph)
// frozenDiscriminator - copy of discriminator's structure on the generator's graph whose
// learnables are ignored by the generator's solver; its weight nodes share backing values
// with the trainable discriminator, so discriminator updates are visible here without any
// explicit synchronization
//
type GAN struct {
	generatorPart     *GeneratorNet
	discriminatorPart *DiscriminatorNet

	frozenDiscriminator *DiscriminatorNet

	out           *gorgonia.Node
	learnables    gorgonia.Nodes
	learnablesGen gorgonia.Nodes
}

// NewGAN Constructor for GAN.
//
// g - graph the generator has been defined on
// definedGenerator - Generator part
// definedDiscriminator - Discriminator part (defined on a different graph for its own training)
//
func NewGAN(g *gorgonia.ExprGraph, definedGenerator *GeneratorNet, definedDiscriminator *DiscriminatorNet) (*GAN, error) {
	if definedGenerator == nil {
		return nil, fmt.Errorf("Generator part must be defined")
	}
	if definedDiscriminator == nil {
		return nil, fmt.Errorf("Discriminator part must be defined")
	}
	genCfg := definedGenerator.Config()
	disCfg := definedDiscriminator.Config()
	if genCfg.OutputHeight != disCfg.InputHeight || genCfg.OutputWidth != disCfg.InputWidth {
		return nil, fmt.Errorf("Generator's output %dx%d does not match Discriminator's input %dx%d", genCfg.OutputHeight, genCfg.OutputWidth, disCfg.InputHeight, disCfg.InputWidth)
	}
	if genCfg.NumClasses != disCfg.NumClasses {
		return nil, fmt.Errorf("Generator knows %d classes but Discriminator knows %d", genCfg.NumClasses, disCfg.NumClasses)
	}
	frozen, err := definedDiscriminator.cloneTo(g, "_gan")
	if err != nil {
		return nil, errors.Wrap(err, "Can't copy Discriminator's structure onto Generator's graph")
	}
	definedGAN := GAN{
		generatorPart:       definedGenerator,
		discriminatorPart:   definedDiscriminator,
		frozenDiscriminator: frozen,
		learnablesGen:       definedGenerator.Learnables(),
	}
	definedGAN.learnables = append(definedGAN.learnables, definedGAN.learnablesGen...)
	definedGAN.learnables = append(definedGAN.learnables, frozen.Learnables()...)
	return &definedGAN, nil
}

// Out Returns reference to output node
func (net *GAN) Out() *gorgonia.Node {
	return net.out
}

// GeneratorOut Returns reference to output node of generator part
func (net *GAN) GeneratorOut() *gorgonia.Node {
	return net.generatorPart.Out()
}

// Learnables Returns learnables nodes (generator part and frozen discriminator part both:
// gradients must flow through the frozen part even though the solver never steps it)
func (net *GAN) Learnables() gorgonia.Nodes {
	return net.learnables
}

// GeneratorLearnables Returns learnables nodes of generator part only
func (net *GAN) GeneratorLearnables() gorgonia.Nodes {
	return net.learnablesGen
}

// Fwd Initializates feedforward for GAN: generator's output is fed through the frozen
// discriminator copy conditioned on the same labels the generator was conditioned on.
//
// labels - input node holding integer class indices, shape (batchSize,)
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
// Note: generator's Fwd must have been initialized before this call.
//
func (net *GAN) Fwd(labels *gorgonia.Node, batchSize int) error {
	if net.generatorPart.Out() == nil {
		return fmt.Errorf("Generator part must be initialized (call its Fwd) before GAN's Fwd")
	}
	if err := net.frozenDiscriminator.Fwd(net.generatorPart.Out(), labels, batchSize); err != nil {
		return errors.Wrap(err, "[GAN] Can't feedforward generated images through frozen discriminator")
	}
	net.out = net.frozenDiscriminator.Out()
	return nil
}
