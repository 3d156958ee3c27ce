package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// BatchMetrics Metrics reported by one pair of training steps
type BatchMetrics struct {
	DiscriminatorLoss     float64
	DiscriminatorAccuracy float64
	GeneratorLoss         float64
}

// EpochMetrics Per-epoch means of batch metrics. DiscriminatorAccuracy is the running
// accuracy accumulated over the epoch (the accumulator is reset at each epoch boundary).
type EpochMetrics struct {
	Epoch                 int
	DiscriminatorLoss     float64
	DiscriminatorAccuracy float64
	GeneratorLoss         float64
}

// Trainer Owns the alternating cGAN training procedure: per batch the discriminator is
// updated first on a combined generated+real batch with smoothed real targets, then the
// generator is updated through the frozen discriminator copy against all-ones targets.
// Each step draws its own fresh latent noise.
//
// Updates touch disjoint parameter sets: the discriminator step never modifies the
// generator and vice versa.
//
type Trainer struct {
	generator     *GeneratorNet
	discriminator *DiscriminatorNet
	gan           *GAN

	smoothing  float64
	batchSize  int
	latentSize int

	// Generator's training graph nodes
	latentInput *gorgonia.Node
	genLabels   *gorgonia.Node
	ganTarget   *gorgonia.Node
	// Discriminator's training graph nodes
	discInput  *gorgonia.Node
	discLabels *gorgonia.Node
	discTarget *gorgonia.Node

	generatedValue gorgonia.Value
	ganLossValue   gorgonia.Value
	discOutValue   gorgonia.Value
	discLossValue  gorgonia.Value

	// generatorVM evaluates generator output only (its tape was compiled before loss
	// nodes were added to the graph); ganVM additionally evaluates loss and gradients
	generatorVM gorgonia.VM
	ganVM       gorgonia.VM
	discVM      gorgonia.VM

	solverDiscriminator gorgonia.Solver
	solverGenerator     gorgonia.Solver
	lossFn              LossFunc
	metric              *BinaryAccuracy

	compiled bool
}

// NewTrainer Constructor for Trainer: accepts the two networks and the one-sided label
// smoothing factor (must be in (0, 1]; 1.0 disables smoothing). Builds the frozen
// discriminator copy on the generator's graph.
func NewTrainer(definedGenerator *GeneratorNet, definedDiscriminator *DiscriminatorNet, smoothing float64) (*Trainer, error) {
	if smoothing <= 0 || smoothing > 1 {
		return nil, fmt.Errorf("Smoothing factor must be in (0, 1], but got %f", smoothing)
	}
	if definedGenerator == nil || definedDiscriminator == nil {
		return nil, fmt.Errorf("Both Generator and Discriminator must be defined")
	}
	definedGAN, err := NewGAN(definedGenerator.graph, definedGenerator, definedDiscriminator)
	if err != nil {
		return nil, errors.Wrap(err, "Can't assemble GAN for generator training")
	}
	return &Trainer{
		generator:     definedGenerator,
		discriminator: definedDiscriminator,
		gan:           definedGAN,
		smoothing:     smoothing,
		latentSize:    definedGenerator.Config().LatentSize,
	}, nil
}

// Compile Wires both training graphs for provided batch size: input nodes, forward
// passes, loss nodes, gradients and tape machines. Accepts the two optimizers, the
// loss function and the accuracy metric instance. Must be called exactly once before
// any training step.
func (t *Trainer) Compile(solverDiscriminator, solverGenerator gorgonia.Solver, lossFn LossFunc, metric *BinaryAccuracy, batchSize int) error {
	if t.compiled {
		return fmt.Errorf("Trainer has been compiled already")
	}
	if batchSize < 1 {
		return fmt.Errorf("Batch size must be positive, but got %d", batchSize)
	}
	if solverDiscriminator == nil || solverGenerator == nil {
		return fmt.Errorf("Both solvers must be defined")
	}
	if lossFn == nil {
		return fmt.Errorf("Loss function must be defined")
	}
	if metric == nil {
		metric = NewBinaryAccuracy()
	}
	genCfg := t.generator.Config()
	ganGraph := t.generator.graph
	discGraph := t.discriminator.graph

	/* Generator's training graph: latent noise + labels -> generator -> frozen discriminator */
	t.latentInput = gorgonia.NewMatrix(ganGraph, gorgonia.Float64, gorgonia.WithShape(batchSize, genCfg.LatentSize), gorgonia.WithName("generator_input"))
	t.genLabels = gorgonia.NewTensor(ganGraph, gorgonia.Int, 1, gorgonia.WithShape(batchSize), gorgonia.WithName("generator_labels"))
	if err := t.generator.Fwd(t.latentInput, t.genLabels, batchSize); err != nil {
		return errors.Wrap(err, "Can't initialize Generator's feedforward")
	}
	if err := t.gan.Fwd(t.genLabels, batchSize); err != nil {
		return errors.Wrap(err, "Can't initialize GAN's feedforward")
	}
	gorgonia.Read(t.gan.GeneratorOut(), &t.generatedValue)
	// Tape of this machine is compiled before loss nodes exist: it evaluates the
	// generator's output for inference and for faking discriminator's training batches
	t.generatorVM = gorgonia.NewTapeMachine(ganGraph)

	t.ganTarget = gorgonia.NewMatrix(ganGraph, gorgonia.Float64, gorgonia.WithShape(batchSize, 1), gorgonia.WithName("gan_discriminator_target"))
	ganLoss, err := lossFn(t.gan.Out(), t.ganTarget)
	if err != nil {
		return errors.Wrap(err, "Can't build loss node for GAN")
	}
	gorgonia.WithName("gan_discriminator_loss")(ganLoss)
	if _, err := gorgonia.Grad(ganLoss, t.gan.Learnables()...); err != nil {
		return errors.Wrap(err, "Can't define gradients for GAN")
	}
	gorgonia.Read(ganLoss, &t.ganLossValue)
	t.ganVM = gorgonia.NewTapeMachine(ganGraph, gorgonia.BindDualValues(t.gan.Learnables()...))

	/* Discriminator's training graph: combined generated+real batch -> logits */
	combinedBatch := 2 * batchSize
	disCfg := t.discriminator.Config()
	t.discInput = gorgonia.NewTensor(discGraph, gorgonia.Float64, 4, gorgonia.WithShape(combinedBatch, 1, disCfg.InputHeight, disCfg.InputWidth), gorgonia.WithName("discriminator_train_input"))
	t.discLabels = gorgonia.NewTensor(discGraph, gorgonia.Int, 1, gorgonia.WithShape(combinedBatch), gorgonia.WithName("discriminator_train_labels"))
	if err := t.discriminator.Fwd(t.discInput, t.discLabels, combinedBatch); err != nil {
		return errors.Wrap(err, "Can't initialize Discriminator's feedforward")
	}
	gorgonia.Read(t.discriminator.Out(), &t.discOutValue)
	t.discTarget = gorgonia.NewMatrix(discGraph, gorgonia.Float64, gorgonia.WithShape(combinedBatch, 1), gorgonia.WithName("discriminator_target"))
	discLoss, err := lossFn(t.discriminator.Out(), t.discTarget)
	if err != nil {
		return errors.Wrap(err, "Can't build loss node for Discriminator")
	}
	gorgonia.WithName("discriminator_loss")(discLoss)
	if _, err := gorgonia.Grad(discLoss, t.discriminator.Learnables()...); err != nil {
		return errors.Wrap(err, "Can't define gradients for Discriminator")
	}
	gorgonia.Read(discLoss, &t.discLossValue)
	t.discVM = gorgonia.NewTapeMachine(discGraph, gorgonia.BindDualValues(t.discriminator.Learnables()...))

	t.solverDiscriminator = solverDiscriminator
	t.solverGenerator = solverGenerator
	t.lossFn = lossFn
	t.metric = metric
	t.batchSize = batchSize
	t.compiled = true
	return nil
}

// DiscriminatorStep One discriminator update on a batch mixing generated and real images.
//
// Fresh latent vectors are drawn, fake images are generated conditioned on the real
// batch's labels, then the combined batch (generated first, then real) is scored against
// zero targets for fakes and smoothed one targets for reals. Exactly one solver step is
// applied to discriminator's parameters; generator's parameters are untouched.
//
// Returns the scalar loss and the running accuracy accumulated to date.
//
func (t *Trainer) DiscriminatorStep(realImages, realLabels *tensor.Dense) (float64, float64, error) {
	if !t.compiled {
		return 0, 0, fmt.Errorf("Trainer must be compiled before training steps")
	}
	if realImages.Shape()[0] != t.batchSize {
		return 0, 0, fmt.Errorf("Batch of real images must have %d samples, but got %d", t.batchSize, realImages.Shape()[0])
	}
	if realLabels.Shape()[0] != t.batchSize {
		return 0, 0, fmt.Errorf("Batch of labels must have %d samples, but got %d", t.batchSize, realLabels.Shape()[0])
	}
	fakeImages, err := t.generate(NormRandDense(t.batchSize, t.latentSize), realLabels)
	if err != nil {
		return 0, 0, errors.Wrap(err, "Can't generate fake images for discriminator training")
	}
	combinedImages, err := tensor.Concat(0, fakeImages, realImages)
	if err != nil {
		return 0, 0, errors.Wrap(err, "Can't concatenate generated and real images")
	}
	combinedLabels, err := tensor.Concat(0, realLabels, realLabels)
	if err != nil {
		return 0, 0, errors.Wrap(err, "Can't concatenate conditioning labels")
	}
	realTargets, err := RealTargets(t.batchSize, t.smoothing)
	if err != nil {
		return 0, 0, errors.Wrap(err, "Can't build smoothed targets for real images")
	}
	combinedTargets, err := tensor.Concat(0, FakeTargets(t.batchSize), realTargets)
	if err != nil {
		return 0, 0, errors.Wrap(err, "Can't concatenate fake and real targets")
	}
	if err := gorgonia.Let(t.discInput, combinedImages); err != nil {
		return 0, 0, errors.Wrap(err, "Can't bind combined images")
	}
	if err := gorgonia.Let(t.discLabels, combinedLabels); err != nil {
		return 0, 0, errors.Wrap(err, "Can't bind combined labels")
	}
	if err := gorgonia.Let(t.discTarget, combinedTargets); err != nil {
		return 0, 0, errors.Wrap(err, "Can't bind combined targets")
	}
	if err := t.discVM.RunAll(); err != nil {
		return 0, 0, errors.Wrap(err, "Can't run Discriminator's training step")
	}
	if err := t.solverDiscriminator.Step(gorgonia.NodesToValueGrads(t.discriminator.Learnables())); err != nil {
		return 0, 0, errors.Wrap(err, "Can't do solver step over Discriminator's learnables")
	}
	t.discVM.Reset()
	loss, ok := t.discLossValue.Data().(float64)
	if !ok {
		return 0, 0, fmt.Errorf("Discriminator's loss must be scalar float64, but got %T", t.discLossValue.Data())
	}
	logits, ok := t.discOutValue.(*tensor.Dense)
	if !ok {
		return 0, 0, fmt.Errorf("Discriminator's output must be dense tensor, but got %T", t.discOutValue)
	}
	if err := t.metric.UpdateFromLogits(logits, combinedTargets.(*tensor.Dense)); err != nil {
		return 0, 0, errors.Wrap(err, "Can't update running accuracy")
	}
	return loss, t.metric.Value(), nil
}

// GeneratorStep One generator update: fresh latent vectors are generated into images,
// scored by the frozen discriminator copy and pulled towards all-ones targets (no label
// smoothing here). Exactly one solver step is applied to generator's parameters;
// discriminator's parameters are read through the shared values but never updated.
//
// Returns the scalar loss.
//
func (t *Trainer) GeneratorStep(labels *tensor.Dense) (float64, error) {
	if !t.compiled {
		return 0, fmt.Errorf("Trainer must be compiled before training steps")
	}
	if labels.Shape()[0] != t.batchSize {
		return 0, fmt.Errorf("Batch of labels must have %d samples, but got %d", t.batchSize, labels.Shape()[0])
	}
	if err := gorgonia.Let(t.latentInput, NormRandDense(t.batchSize, t.latentSize)); err != nil {
		return 0, errors.Wrap(err, "Can't bind latent vectors")
	}
	if err := gorgonia.Let(t.genLabels, labels); err != nil {
		return 0, errors.Wrap(err, "Can't bind labels")
	}
	allOnes, err := RealTargets(t.batchSize, 1.0)
	if err != nil {
		return 0, errors.Wrap(err, "Can't build all-ones targets")
	}
	if err := gorgonia.Let(t.ganTarget, allOnes); err != nil {
		return 0, errors.Wrap(err, "Can't bind targets")
	}
	if err := t.ganVM.RunAll(); err != nil {
		return 0, errors.Wrap(err, "Can't run Generator's training step")
	}
	if err := t.solverGenerator.Step(gorgonia.NodesToValueGrads(t.gan.GeneratorLearnables())); err != nil {
		return 0, errors.Wrap(err, "Can't do solver step over Generator's learnables")
	}
	t.ganVM.Reset()
	loss, ok := t.ganLossValue.Data().(float64)
	if !ok {
		return 0, fmt.Errorf("Generator's loss must be scalar float64, but got %T", t.ganLossValue.Data())
	}
	return loss, nil
}

// TrainBatch Single per-batch update: discriminator step first, then generator step.
// Latent draws are independent between the two steps.
func (t *Trainer) TrainBatch(realImages, realLabels *tensor.Dense) (BatchMetrics, error) {
	discLoss, discAccuracy, err := t.DiscriminatorStep(realImages, realLabels)
	if err != nil {
		return BatchMetrics{}, errors.Wrap(err, "[Discriminator step]")
	}
	genLoss, err := t.GeneratorStep(realLabels)
	if err != nil {
		return BatchMetrics{}, errors.Wrap(err, "[Generator step]")
	}
	return BatchMetrics{
		DiscriminatorLoss:     discLoss,
		DiscriminatorAccuracy: discAccuracy,
		GeneratorLoss:         genLoss,
	}, nil
}

// Fit Drives training over provided number of epochs. Per-epoch metrics are means of
// batch losses; the accuracy accumulator is reset at each epoch boundary.
func (t *Trainer) Fit(set *TrainSet, numEpochs int) ([]EpochMetrics, error) {
	if !t.compiled {
		return nil, fmt.Errorf("Trainer must be compiled before fitting")
	}
	if numEpochs < 1 {
		return nil, fmt.Errorf("Number of epochs must be positive, but got %d", numEpochs)
	}
	numBatches := set.NumBatches(t.batchSize)
	if numBatches < 1 {
		return nil, fmt.Errorf("Training set of %d samples does not contain a single batch of size %d", set.DataLength, t.batchSize)
	}
	history := make([]EpochMetrics, 0, numEpochs)
	for epoch := 0; epoch < numEpochs; epoch++ {
		discLosses := make([]float64, 0, numBatches)
		genLosses := make([]float64, 0, numBatches)
		lastAccuracy := 0.0
		for b := 0; b < numBatches; b++ {
			realImages, realLabels, err := set.Batch(b, t.batchSize)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("Can't extract batch #%d", b))
			}
			batchMetrics, err := t.TrainBatch(realImages, realLabels)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("Can't train on batch #%d of epoch #%d", b, epoch))
			}
			discLosses = append(discLosses, batchMetrics.DiscriminatorLoss)
			genLosses = append(genLosses, batchMetrics.GeneratorLoss)
			lastAccuracy = batchMetrics.DiscriminatorAccuracy
		}
		history = append(history, EpochMetrics{
			Epoch:                 epoch,
			DiscriminatorLoss:     stat.Mean(discLosses, nil),
			DiscriminatorAccuracy: lastAccuracy,
			GeneratorLoss:         stat.Mean(genLosses, nil),
		})
		t.metric.Reset()
	}
	return history, nil
}

// Generate Inference: maps provided latent vectors and labels to images with current
// generator parameters. Deterministic for fixed inputs between parameter updates.
func (t *Trainer) Generate(latent, labels *tensor.Dense) (*tensor.Dense, error) {
	if !t.compiled {
		return nil, fmt.Errorf("Trainer must be compiled before generation")
	}
	if latent.Shape()[0] != t.batchSize || latent.Shape()[1] != t.latentSize {
		return nil, fmt.Errorf("Latent vectors must have shape (%d, %d), but got %v", t.batchSize, t.latentSize, latent.Shape())
	}
	if labels.Shape()[0] != t.batchSize {
		return nil, fmt.Errorf("Batch of labels must have %d samples, but got %d", t.batchSize, labels.Shape()[0])
	}
	return t.generate(latent, labels)
}

func (t *Trainer) generate(latent, labels *tensor.Dense) (*tensor.Dense, error) {
	if err := gorgonia.Let(t.latentInput, latent); err != nil {
		return nil, errors.Wrap(err, "Can't bind latent vectors")
	}
	if err := gorgonia.Let(t.genLabels, labels); err != nil {
		return nil, errors.Wrap(err, "Can't bind labels")
	}
	if err := t.generatorVM.RunAll(); err != nil {
		return nil, errors.Wrap(err, "Can't run Generator's feedforward")
	}
	t.generatorVM.Reset()
	generated, ok := t.generatedValue.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("Generator's output must be dense tensor, but got %T", t.generatedValue)
	}
	return generated.Clone().(*tensor.Dense), nil
}
