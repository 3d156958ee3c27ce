package cgan_go

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
)

// LabelEmbedder Maps a batch of integer class labels to spatial conditioning maps.
//
// Lookup of a learned dense vector per label index, linear projection to height*width
// and reshape to (batch, 1, height, width) so the result can be concatenated with
// image tensors along the channel axis. No normalization or activation.
//
// Label index outside [0, numClasses) is not checked.
//
type LabelEmbedder struct {
	name   string
	height int
	width  int

	table *gorgonia.Node
	proj  *gorgonia.Node
	bias  *gorgonia.Node

	out *gorgonia.Node
}

// NewLabelEmbedder Constructor for LabelEmbedder.
//
// g - graph to place learnable nodes on
// name - prefix for node names
// numClasses - size of the label set
// embeddingSize - width of each embedding table row
// height, width - spatial size of resulting conditioning map
//
func NewLabelEmbedder(g *gorgonia.ExprGraph, name string, numClasses, embeddingSize, height, width int) (*LabelEmbedder, error) {
	if numClasses < 1 {
		return nil, fmt.Errorf("Number of classes must be positive, but got %d", numClasses)
	}
	if embeddingSize < 1 {
		return nil, fmt.Errorf("Embedding size must be positive, but got %d", embeddingSize)
	}
	if height < 1 || width < 1 {
		return nil, fmt.Errorf("Spatial size must be positive, but got %dx%d", height, width)
	}
	return &LabelEmbedder{
		name:   name,
		height: height,
		width:  width,
		table:  gorgonia.NewTensor(g, gorgonia.Float64, 2, gorgonia.WithShape(numClasses, embeddingSize), gorgonia.WithName(name+"_table"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
		proj:   gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(height*width, embeddingSize), gorgonia.WithName(name+"_proj_w"), gorgonia.WithInit(gorgonia.GlorotN(1.0))),
		bias:   gorgonia.NewMatrix(g, gorgonia.Float64, gorgonia.WithShape(1, height*width), gorgonia.WithName(name+"_proj_b"), gorgonia.WithInit(gorgonia.Zeroes())),
	}, nil
}

// Out Returns reference to output node
func (e *LabelEmbedder) Out() *gorgonia.Node {
	return e.out
}

// Learnables Returns learnables nodes
func (e *LabelEmbedder) Learnables() gorgonia.Nodes {
	return gorgonia.Nodes{e.table, e.proj, e.bias}
}

// Fwd Initializates feedforward for provided labels
//
// labels - input node holding integer class indices, shape (batchSize,)
// batchSize - batch size. If it's >= 2 then broadcast function will be applied
//
func (e *LabelEmbedder) Fwd(labels *gorgonia.Node, batchSize int) error {
	embedded, err := gorgonia.ByIndices(e.table, labels, 0)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't look up embedding rows of '%s'", e.name))
	}
	gorgonia.WithName(e.name + "_embedded")(embedded)
	tOp, err := gorgonia.Transpose(e.proj)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't transpose projection weights of '%s'", e.name))
	}
	projected, err := gorgonia.Mul(embedded, tOp)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't project embedding of '%s'", e.name))
	}
	if batchSize < 2 {
		projected, err = gorgonia.Add(projected, e.bias)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("Can't add bias to projected embedding of '%s'", e.name))
		}
	} else {
		projected, err = gorgonia.BroadcastAdd(projected, e.bias, nil, []byte{0})
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("Can't add bias [in broadcast term with batch_size = %d] to projected embedding of '%s'", batchSize, e.name))
		}
	}
	gorgonia.WithName(e.name + "_projected")(projected)
	spatial, err := gorgonia.Reshape(projected, []int{batchSize, 1, e.height, e.width})
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Can't reshape projected embedding of '%s' to spatial map", e.name))
	}
	gorgonia.WithName(e.name + "_spatial")(spatial)
	e.out = spatial
	return nil
}

// cloneTo Re-creates embedder's structure on another graph sharing underlying weight values.
// Used for frozen copies: updates to the source embedder's weights are visible through
// the shared backing tensors while the copy's nodes are never stepped by a solver.
func (e *LabelEmbedder) cloneTo(g *gorgonia.ExprGraph, suffix string) *LabelEmbedder {
	return &LabelEmbedder{
		name:   e.name + suffix,
		height: e.height,
		width:  e.width,
		table:  gorgonia.NewTensor(g, gorgonia.Float64, e.table.Dims(), gorgonia.WithShape(e.table.Shape()...), gorgonia.WithName(e.table.Name()+suffix), gorgonia.WithValue(e.table.Value())),
		proj:   gorgonia.NewTensor(g, gorgonia.Float64, e.proj.Dims(), gorgonia.WithShape(e.proj.Shape()...), gorgonia.WithName(e.proj.Name()+suffix), gorgonia.WithValue(e.proj.Value())),
		bias:   gorgonia.NewTensor(g, gorgonia.Float64, e.bias.Dims(), gorgonia.WithShape(e.bias.Shape()...), gorgonia.WithName(e.bias.Name()+suffix), gorgonia.WithValue(e.bias.Value())),
	}
}
