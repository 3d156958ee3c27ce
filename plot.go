package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gorgonia.org/tensor"
)

// PlotHistory Plot chart with per-epoch losses and discriminator's accuracy
func PlotHistory(history []EpochMetrics, fname string) error {
	if len(history) == 0 {
		return fmt.Errorf("History must have one epoch atleast")
	}
	discLossXYs := make(plotter.XYs, len(history))
	genLossXYs := make(plotter.XYs, len(history))
	accuracyXYs := make(plotter.XYs, len(history))
	for i, m := range history {
		discLossXYs[i].X = float64(m.Epoch)
		discLossXYs[i].Y = m.DiscriminatorLoss
		genLossXYs[i].X = float64(m.Epoch)
		genLossXYs[i].Y = m.GeneratorLoss
		accuracyXYs[i].X = float64(m.Epoch)
		accuracyXYs[i].Y = m.DiscriminatorAccuracy
	}
	p := plot.New()
	p.X.Label.Text = "Epoch"
	p.Add(plotter.NewGrid())
	discLine, err := plotter.NewLine(discLossXYs)
	if err != nil {
		return errors.Wrap(err, "Can't init line for discriminator's loss")
	}
	genLine, err := plotter.NewLine(genLossXYs)
	if err != nil {
		return errors.Wrap(err, "Can't init line for generator's loss")
	}
	genLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	accuracyLine, err := plotter.NewLine(accuracyXYs)
	if err != nil {
		return errors.Wrap(err, "Can't init line for discriminator's accuracy")
	}
	accuracyLine.LineStyle.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
	p.Add(discLine, genLine, accuracyLine)
	p.Legend.Add("discriminator loss", discLine)
	p.Legend.Add("generator loss", genLine)
	p.Legend.Add("discriminator accuracy", accuracyLine)
	if err := p.Save(6*vg.Inch, 4*vg.Inch, fname); err != nil {
		return errors.Wrap(err, "Can't save plot")
	}
	return nil
}

// imageGrid Adapter exposing a single-channel image tensor as a heat map grid
type imageGrid struct {
	data   []float64
	height int
	width  int
}

func (g imageGrid) Dims() (int, int)   { return g.width, g.height }
func (g imageGrid) X(c int) float64    { return float64(c) }
func (g imageGrid) Y(r int) float64    { return float64(r) }
func (g imageGrid) Z(c, r int) float64 { return g.data[(g.height-1-r)*g.width+c] }

// PlotImage Plot single-channel image (last two dimensions are treated as height and
// width; leading dimensions must be of size 1) as a heat map
func PlotImage(img *tensor.Dense, fname string) error {
	shape := img.Shape()
	if len(shape) < 2 {
		return fmt.Errorf("Image must have two dimensions atleast, but got shape %v", shape)
	}
	height := shape[len(shape)-2]
	width := shape[len(shape)-1]
	if img.Shape().TotalSize() != height*width {
		return fmt.Errorf("Image must have exactly one channel, but got shape %v", shape)
	}
	data, ok := img.Data().([]float64)
	if !ok {
		return fmt.Errorf("Image must be backed by []float64, but got %T", img.Data())
	}
	heatMap := plotter.NewHeatMap(imageGrid{data: data, height: height, width: width}, palette.Heat(12, 1))
	p := plot.New()
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(heatMap)
	if err := p.Save(4*vg.Inch, 4*vg.Inch, fname); err != nil {
		return errors.Wrap(err, "Can't save plot")
	}
	return nil
}
