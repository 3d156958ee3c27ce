package cgan_go

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// TrainSet Co-indexed pair of images and class labels.
//
// Images - dense tensor of shape (DataLength, 1, height, width), values in [-1, 1]
// Labels - dense tensor of shape (DataLength,) backed by []int class indices
//
type TrainSet struct {
	Images     *tensor.Dense
	Labels     *tensor.Dense
	DataLength int
}

// NewTrainSet Constructor for TrainSet. Checks positional correspondence of both tensors.
func NewTrainSet(images, labels *tensor.Dense) (*TrainSet, error) {
	if images.Dims() != 4 {
		return nil, fmt.Errorf("Images must have 4 dimensions (batch, channels, height, width), but got %d", images.Dims())
	}
	if labels.Dims() != 1 {
		return nil, fmt.Errorf("Labels must have 1 dimension, but got %d", labels.Dims())
	}
	if images.Shape()[0] != labels.Shape()[0] {
		return nil, fmt.Errorf("Every image must be paired with exactly one label, but got %d images and %d labels", images.Shape()[0], labels.Shape()[0])
	}
	return &TrainSet{
		Images:     images,
		Labels:     labels,
		DataLength: images.Shape()[0],
	}, nil
}

// NumBatches Number of full batches of provided size (remainder samples are dropped)
func (set *TrainSet) NumBatches(batchSize int) int {
	if batchSize < 1 {
		return 0
	}
	return set.DataLength / batchSize
}

// Batch Returns materialized (images, labels) pair for provided batch index
func (set *TrainSet) Batch(index, batchSize int) (*tensor.Dense, *tensor.Dense, error) {
	start := index * batchSize
	end := start + batchSize
	if start < 0 || end > set.DataLength {
		return nil, nil, fmt.Errorf("Batch #%d of size %d is out of range for %d samples", index, batchSize, set.DataLength)
	}
	imagesView, err := set.Images.Slice(SlicerOneStep{StartIdx: start, EndIdx: end})
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't slice images")
	}
	images, ok := imagesView.Materialize().(*tensor.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("Materialized images batch is not dense")
	}
	labelsView, err := set.Labels.Slice(SlicerOneStep{StartIdx: start, EndIdx: end})
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't slice labels")
	}
	labels, ok := labelsView.Materialize().(*tensor.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("Materialized labels batch is not dense")
	}
	return images, labels, nil
}

// SlicerOneStep Just iterator with step size = 1
type SlicerOneStep struct {
	StartIdx, EndIdx int
}

func (s SlicerOneStep) Start() int { return s.StartIdx }
func (s SlicerOneStep) End() int   { return s.EndIdx }
func (s SlicerOneStep) Step() int  { return 1 }

// SymbolSide Spatial size of the synthetic glyph images
const SymbolSide = 8

// symbolGlyphs 8x8 glyphs for classes 'X', 'T' and 'O'
var symbolGlyphs = [][]float64{
	{
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 1, 0, 0,
		0, 0, 1, 0, 1, 0, 0, 0,
		0, 0, 0, 1, 0, 0, 0, 0,
		0, 0, 0, 1, 0, 0, 0, 0,
		0, 0, 1, 0, 1, 0, 0, 0,
		0, 1, 0, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	{
		0, 1, 1, 1, 1, 1, 1, 0,
		0, 1, 1, 1, 1, 1, 1, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
		0, 0, 0, 1, 1, 0, 0, 0,
	},
	{
		0, 0, 1, 1, 1, 1, 0, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 1, 0, 0, 0, 0, 1, 0,
		0, 0, 1, 1, 1, 1, 0, 0,
	},
}

// SymbolClasses Number of glyph classes produced by GenerateSymbolSet
const SymbolClasses = 3

// GenerateSymbolSet Synthetic labeled dataset of noisy glyph images.
//
// Each sample is a randomly picked class glyph mapped from {0, 1} to [-1, 1] with
// additive Gaussian noise of provided amplitude, clamped back to [-1, 1].
//
func GenerateSymbolSet(numSamples int, noiseAmplitude float64) (*TrainSet, error) {
	if numSamples < 1 {
		return nil, fmt.Errorf("Number of samples must be positive, but got %d", numSamples)
	}
	pixels := SymbolSide * SymbolSide
	imagesData := make([]float64, numSamples*pixels)
	labelsData := make([]int, numSamples)
	for i := 0; i < numSamples; i++ {
		class := rand.Intn(SymbolClasses)
		labelsData[i] = class
		glyph := symbolGlyphs[class]
		for p := 0; p < pixels; p++ {
			value := 2.0*glyph[p] - 1.0
			value += noiseAmplitude * rand.NormFloat64()
			if value > 1.0 {
				value = 1.0
			}
			if value < -1.0 {
				value = -1.0
			}
			imagesData[i*pixels+p] = value
		}
	}
	images := tensor.New(tensor.WithShape(numSamples, 1, SymbolSide, SymbolSide), tensor.WithBacking(imagesData))
	labels := tensor.New(tensor.WithShape(numSamples), tensor.WithBacking(labelsData))
	return NewTrainSet(images, labels)
}
