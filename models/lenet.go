package models

import (
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
)

// LeNet5 is the classic two-convolution stack with relu activations and max
// pooling, followed by 120/84 dense layers.
func LeNet5(numClasses int) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := lenetFeatures(ctx, inputs[0], false)
		return []*Node{lenetHead(ctx, x, numClasses, false)}
	}
}

// LeCunLeNet5 is the 1998 flavor: tanh activations and average pooling.
func LeCunLeNet5(numClasses int) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := lenetFeatures(ctx, inputs[0], true)
		return []*Node{lenetHead(ctx, x, numClasses, true)}
	}
}

// AttentionLeNet5 is LeNet5 with an attention block over the convolutional
// features: single-head self-attention for "official", squeeze-and-excitation
// for "senet".
func AttentionLeNet5(numClasses int, attentionType string) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := lenetFeatures(ctx, inputs[0], false)
		if attentionType == "senet" {
			x = squeezeExcite(ctx.In("se"), x)
		} else {
			x = selfAttention(ctx.In("attention"), x)
		}
		return []*Node{lenetHead(ctx, x, numClasses, false)}
	}
}

func lenetFeatures(ctx *context.Context, x *Node, tanh bool) *Node {
	act, pool := layers.Relu, maxPool2
	if tanh {
		act, pool = Tanh, avgPool2
	}
	{
		ctx := ctx.In("conv1")
		x = layers.Convolution(ctx, x).KernelSize(5).Filters(6).PadSame().Done()
		x = pool(act(x))
	}
	{
		ctx := ctx.In("conv2")
		x = layers.Convolution(ctx, x).KernelSize(5).Filters(16).NoPadding().Done()
		x = pool(act(x))
	}
	return x
}

func lenetHead(ctx *context.Context, x *Node, numClasses int, tanh bool) *Node {
	act := layers.Relu
	if tanh {
		act = Tanh
	}
	x = flatten(x)
	{
		ctx := ctx.In("dense1")
		x = act(layers.DenseWithBias(ctx, x, 120))
	}
	{
		ctx := ctx.In("dense2")
		x = act(layers.DenseWithBias(ctx, x, 84))
	}
	{
		ctx := ctx.In("readout")
		x = layers.DenseWithBias(ctx, x, numClasses)
	}
	return x
}

// selfAttention applies single-head dot-product attention over the spatial
// positions, with a residual connection.
func selfAttention(ctx *context.Context, x *Node) *Node {
	dims := x.Shape().Dimensions
	channels := dims[3]
	seq := Reshape(x, dims[0], dims[1]*dims[2], channels)
	att := layers.MultiHeadAttention(ctx, seq, seq, seq, 1, channels).
		SetOutputDim(channels).
		SetValueHeadDim(channels).Done()
	seq = Add(seq, att)
	return Reshape(seq, dims[0], dims[1], dims[2], channels)
}

const seReduction = 4

// squeezeExcite rescales channels by a gate computed from the globally
// pooled features.
func squeezeExcite(ctx *context.Context, x *Node) *Node {
	channels := x.Shape().Dimensions[3]
	hidden := channels / seReduction
	if hidden < 1 {
		hidden = 1
	}
	s := globalAvgPool(x)
	s = layers.Relu(layers.DenseWithBias(ctx.In("squeeze"), s, hidden))
	s = Sigmoid(layers.DenseWithBias(ctx.In("excite"), s, channels))
	s = ExpandDims(ExpandDims(s, 1), 1)
	return Mul(x, s)
}
