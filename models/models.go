// Package models builds the image-classification model graphs selectable on
// the command line. Builders return logits; losses apply the softmax.
package models

import (
	"github.com/pkg/errors"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/shapes"
)

// GraphFn builds a model graph over one batch of NHWC images and returns the
// logits node.
type GraphFn = func(ctx *context.Context, spec any, inputs []*Node) []*Node

// Available lists the model names selectable for MNIST training.
var Available = []string{
	"LeNet5", "AttentionLeNet5", "LeCunLeNet5",
	"ResNet18", "ResNet34", "ResNet50", "ResNet101", "ResNet152",
}

// IsAvailable reports whether name is one of the selectable models.
func IsAvailable(name string) bool {
	for _, m := range Available {
		if m == name {
			return true
		}
	}
	return false
}

// AttentionName expands the attention model name for an attention type.
func AttentionName(attentionType string) (string, error) {
	switch attentionType {
	case "senet":
		return "AttentionLeNet5_SeNet", nil
	case "official":
		return "AttentionLeNet5_Official", nil
	}
	return "", errors.Errorf("unknown attention_type %q (available: official, senet)", attentionType)
}

// Depth reports the depth of the CIFAR-10 ResNet for the size parameter n:
// 6n+2 for version 1, 9n+2 for version 2.
func Depth(n, version int) int {
	if version == 2 {
		return 9*n + 2
	}
	return 6*n + 2
}

// ByName returns the graph builder for an effective model name: one of
// Available or an expanded attention name.
func ByName(name string, numClasses int) (GraphFn, error) {
	if layout, ok := resnetLayouts[name]; ok {
		return resNet(layout, numClasses), nil
	}
	switch name {
	case "LeNet5":
		return LeNet5(numClasses), nil
	case "LeCunLeNet5":
		return LeCunLeNet5(numClasses), nil
	case "AttentionLeNet5", "AttentionLeNet5_Official":
		return AttentionLeNet5(numClasses, "official"), nil
	case "AttentionLeNet5_SeNet":
		return AttentionLeNet5(numClasses, "senet"), nil
	}
	return nil, errors.Errorf("unknown model %q", name)
}

// NewCIFAR returns the CIFAR-10 ResNet builder for the given size parameter
// and version.
func NewCIFAR(n, version, numClasses int) (GraphFn, error) {
	if n < 1 {
		return nil, errors.Errorf("ResNet size parameter n=%d, must be >= 1", n)
	}
	switch version {
	case 1:
		return cifarResNetV1(n, numClasses), nil
	case 2:
		return cifarResNetV2(n, numClasses), nil
	}
	return nil, errors.Errorf("unknown ResNet version %d (available: 1, 2)", version)
}

// flatten collapses all but the batch axis.
func flatten(x *Node) *Node {
	dims := x.Shape().Dimensions
	flat := 1
	for _, d := range dims[1:] {
		flat *= d
	}
	return Reshape(x, dims[0], flat)
}

// maxPool2 halves the spatial axes with a 2x2 max pool.
func maxPool2(x *Node) *Node {
	return MaxPool(x).Window(2).Done()
}

// avgPool2 halves the spatial axes with a 2x2 mean pool. Spatial dimensions
// must be even.
func avgPool2(x *Node) *Node {
	dims := x.Shape().Dimensions
	x = Reshape(x, dims[0], dims[1]/2, 2, dims[2]/2, 2, dims[3])
	return ReduceMean(x, 2, 4)
}

// globalAvgPool reduces [batch, height, width, channels] to [batch, channels].
func globalAvgPool(x *Node) *Node {
	return ReduceMean(x, 1, 2)
}

// padToSize zero-pads the spatial axes up to height x width, centered. Images
// already that large pass through unchanged.
func padToSize(x *Node, height, width int) *Node {
	g := x.Graph()
	dims := x.Shape().Dimensions
	dtype := x.DType()
	if pad := height - dims[1]; pad > 0 {
		top := Zeros(g, shapes.Make(dtype, dims[0], pad/2, dims[2], dims[3]))
		bottom := Zeros(g, shapes.Make(dtype, dims[0], pad-pad/2, dims[2], dims[3]))
		x = Concatenate([]*Node{top, x, bottom}, 1)
		dims = x.Shape().Dimensions
	}
	if pad := width - dims[2]; pad > 0 {
		left := Zeros(g, shapes.Make(dtype, dims[0], dims[1], pad/2, dims[3]))
		right := Zeros(g, shapes.Make(dtype, dims[0], dims[1], pad-pad/2, dims[3]))
		x = Concatenate([]*Node{left, x, right}, 2)
	}
	return x
}
