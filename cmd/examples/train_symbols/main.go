package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	cgan "github.com/LdDl/cgan-go"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var (
	outputFolder  = "./output"
	batchSize     = 16
	latentSize    = 32
	embeddingSize = 8
	numSamples    = 2048
	numEpochs     = 60
	evalPrint     = 5
	smoothing     = 0.9
	learningRate  = 0.0002
	noiseAmp      = 0.05
)

func main() {
	// Initialize seed with constant value to reproduce results
	rand.Seed(1337)

	// Prepare synthetic data: noisy 'X'/'T'/'O' glyphs
	trainSet, err := cgan.GenerateSymbolSet(numSamples, noiseAmp)
	if err != nil {
		panic(err)
	}

	// Define graph for GAN feedforward and Generator training
	ganGraph := gorgonia.NewGraph()
	// Define graph for Discriminator training
	discGraph := gorgonia.NewGraph()

	generator, err := cgan.NewGenerator(ganGraph, cgan.GeneratorConfig{
		LatentSize:         latentSize,
		NumClasses:         cgan.SymbolClasses,
		EmbeddingSize:      embeddingSize,
		ProjectionChannels: 16,
		Filters:            [2]int{32, 16},
		OutputHeight:       cgan.SymbolSide,
		OutputWidth:        cgan.SymbolSide,
	})
	if err != nil {
		panic(err)
	}
	discriminator, err := cgan.NewDiscriminator(discGraph, cgan.DiscriminatorConfig{
		NumClasses:    cgan.SymbolClasses,
		EmbeddingSize: embeddingSize,
		Filters:       [2]int{32, 64},
		InputHeight:   cgan.SymbolSide,
		InputWidth:    cgan.SymbolSide,
	})
	if err != nil {
		panic(err)
	}

	trainer, err := cgan.NewTrainer(generator, discriminator, smoothing)
	if err != nil {
		panic(err)
	}
	solverDiscriminator := gorgonia.NewAdamSolver(gorgonia.WithBatchSize(float64(2*batchSize)), gorgonia.WithLearnRate(learningRate))
	solverGenerator := gorgonia.NewAdamSolver(gorgonia.WithBatchSize(float64(batchSize)), gorgonia.WithLearnRate(learningRate))
	err = trainer.Compile(solverDiscriminator, solverGenerator, cgan.SigmoidCrossEntropyLoss, cgan.NewBinaryAccuracy(), batchSize)
	if err != nil {
		panic(err)
	}

	/* Training process */
	st := time.Now()
	history, err := trainer.Fit(trainSet, numEpochs)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Training %d epochs taken time: %v\n", numEpochs, time.Since(st))
	for _, m := range history {
		if m.Epoch%evalPrint == 0 || m.Epoch == numEpochs-1 {
			fmt.Printf("Epoch %d:\n", m.Epoch)
			fmt.Printf("\tDiscriminator's loss: %v\n", m.DiscriminatorLoss)
			fmt.Printf("\tDiscriminator's accuracy: %v\n", m.DiscriminatorAccuracy)
			fmt.Printf("\tGenerator's loss: %v\n", m.GeneratorLoss)
		}
	}
	err = os.MkdirAll(outputFolder, 0755)
	if err != nil {
		panic(err)
	}
	err = cgan.PlotHistory(history, fmt.Sprintf("%s/training_history.png", outputFolder))
	if err != nil {
		panic(err)
	}

	/* Final test of Generator: one sample per class */
	fmt.Println("Start testing generator after final epoch")
	latent := cgan.NormRandDense(batchSize, latentSize)
	labelsData := make([]int, batchSize)
	for i := range labelsData {
		labelsData[i] = i % cgan.SymbolClasses
	}
	labels := tensor.New(tensor.WithShape(batchSize), tensor.WithBacking(labelsData))
	generated, err := trainer.Generate(latent, labels)
	if err != nil {
		panic(err)
	}
	for class := 0; class < cgan.SymbolClasses; class++ {
		sample, err := generated.Slice(cgan.SlicerOneStep{StartIdx: class, EndIdx: class + 1})
		if err != nil {
			panic(err)
		}
		err = cgan.PlotImage(sample.Materialize().(*tensor.Dense), fmt.Sprintf("%s/generated_class_%d.png", outputFolder, class))
		if err != nil {
			panic(err)
		}
	}
}
