package models

import (
	"fmt"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
)

// resnetLayer is the conv/norm/activation cell both CIFAR-10 ResNet versions
// are assembled from: conv then BN then relu when convFirst, and the
// pre-activation order BN then relu then conv otherwise. Norm and activation
// are each optional.
func resnetLayer(ctx *context.Context, x *Node, filters, kernel, strides int, activate, norm, convFirst bool) *Node {
	conv := func(x *Node) *Node {
		return layers.Convolution(ctx, x).KernelSize(kernel).Filters(filters).Strides(strides).PadSame().Done()
	}
	if convFirst {
		x = conv(x)
		if norm {
			x = layers.BatchNormalization(ctx, x, -1).Done()
		}
		if activate {
			x = layers.Relu(x)
		}
		return x
	}
	if norm {
		x = layers.BatchNormalization(ctx, x, -1).Done()
	}
	if activate {
		x = layers.Relu(x)
	}
	return conv(x)
}

// cifarResNetV1 is the depth 6n+2 network: three stacks of n two-convolution
// blocks with 16/32/64 filters, downsampling between stacks.
func cifarResNetV1(n, numClasses int) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := padToSize(inputs[0], 32, 32)
		filters := 16
		x = resnetLayer(ctx.In("stem"), x, filters, 3, 1, true, true, true)
		for stage := 0; stage < 3; stage++ {
			for block := 0; block < n; block++ {
				ctx := ctx.In(fmt.Sprintf("stage%d_block%d", stage, block))
				strides := 1
				if stage > 0 && block == 0 {
					strides = 2
				}
				y := resnetLayer(ctx.In("conv1"), x, filters, 3, strides, true, true, true)
				y = resnetLayer(ctx.In("conv2"), y, filters, 3, 1, false, true, true)
				if stage > 0 && block == 0 {
					x = resnetLayer(ctx.In("shortcut"), x, filters, 1, strides, false, false, true)
				}
				x = layers.Relu(Add(x, y))
			}
			filters *= 2
		}
		x = globalAvgPool(x)
		logits := layers.DenseWithBias(ctx.In("readout"), x, numClasses)
		return []*Node{logits}
	}
}

// cifarResNetV2 is the depth 9n+2 network: three stacks of n pre-activation
// bottleneck blocks, 16->64 filters in the first stack, then doubling.
func cifarResNetV2(n, numClasses int) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := padToSize(inputs[0], 32, 32)
		filtersIn := 16
		x = resnetLayer(ctx.In("stem"), x, filtersIn, 3, 1, true, true, true)
		for stage := 0; stage < 3; stage++ {
			filtersOut := filtersIn * 2
			if stage == 0 {
				filtersOut = filtersIn * 4
			}
			for block := 0; block < n; block++ {
				ctx := ctx.In(fmt.Sprintf("stage%d_block%d", stage, block))
				strides := 1
				activate, norm := true, true
				if block == 0 {
					if stage == 0 {
						activate, norm = false, false
					} else {
						strides = 2
					}
				}
				y := resnetLayer(ctx.In("conv1"), x, filtersIn, 1, strides, activate, norm, false)
				y = resnetLayer(ctx.In("conv2"), y, filtersIn, 3, 1, true, true, false)
				y = resnetLayer(ctx.In("conv3"), y, filtersOut, 1, 1, true, true, false)
				if block == 0 {
					x = resnetLayer(ctx.In("shortcut"), x, filtersOut, 1, strides, false, false, true)
				}
				x = Add(x, y)
			}
			filtersIn = filtersOut
		}
		{
			ctx := ctx.In("head")
			x = layers.BatchNormalization(ctx, x, -1).Done()
			x = layers.Relu(x)
		}
		x = globalAvgPool(x)
		logits := layers.DenseWithBias(ctx.In("readout"), x, numClasses)
		return []*Node{logits}
	}
}
