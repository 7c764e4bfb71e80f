package models

import (
	"fmt"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/layers"
)

// resnetLayout selects the block type and per-stage block counts of the
// ResNet-18..152 family.
type resnetLayout struct {
	bottleneck bool
	blocks     [4]int
}

var resnetLayouts = map[string]resnetLayout{
	"ResNet18":  {blocks: [4]int{2, 2, 2, 2}},
	"ResNet34":  {blocks: [4]int{3, 4, 6, 3}},
	"ResNet50":  {bottleneck: true, blocks: [4]int{3, 4, 6, 3}},
	"ResNet101": {bottleneck: true, blocks: [4]int{3, 4, 23, 3}},
	"ResNet152": {bottleneck: true, blocks: [4]int{3, 8, 36, 3}},
}

// resNet builds the 18..152 family with a 3x3 stride-1 stem suited to small
// inputs. Images under 32x32 are zero-padded up first.
func resNet(layout resnetLayout, numClasses int) GraphFn {
	return func(ctx *context.Context, spec any, inputs []*Node) []*Node {
		_ = spec
		x := padToSize(inputs[0], 32, 32)
		{
			ctx := ctx.In("stem")
			x = layers.Convolution(ctx, x).KernelSize(3).Filters(64).PadSame().Done()
			x = layers.BatchNormalization(ctx, x, -1).Done()
			x = layers.Relu(x)
		}
		filters := 64
		for stage := 0; stage < 4; stage++ {
			for block := 0; block < layout.blocks[stage]; block++ {
				ctx := ctx.In(fmt.Sprintf("stage%d_block%d", stage, block))
				strides := 1
				if stage > 0 && block == 0 {
					strides = 2
				}
				if layout.bottleneck {
					x = bottleneckBlock(ctx, x, filters, strides)
				} else {
					x = basicBlock(ctx, x, filters, strides)
				}
			}
			filters *= 2
		}
		x = globalAvgPool(x)
		logits := layers.DenseWithBias(ctx.In("readout"), x, numClasses)
		return []*Node{logits}
	}
}

// basicBlock is two 3x3 convolutions with a projection shortcut whenever the
// output shape changes.
func basicBlock(ctx *context.Context, x *Node, filters, strides int) *Node {
	shortcut := x
	y := x
	{
		ctx := ctx.In("conv1")
		y = layers.Convolution(ctx, y).KernelSize(3).Filters(filters).Strides(strides).PadSame().Done()
		y = layers.BatchNormalization(ctx, y, -1).Done()
		y = layers.Relu(y)
	}
	{
		ctx := ctx.In("conv2")
		y = layers.Convolution(ctx, y).KernelSize(3).Filters(filters).PadSame().Done()
		y = layers.BatchNormalization(ctx, y, -1).Done()
	}
	if strides != 1 || x.Shape().Dimensions[3] != filters {
		ctx := ctx.In("shortcut")
		shortcut = layers.Convolution(ctx, x).KernelSize(1).Filters(filters).Strides(strides).PadSame().Done()
		shortcut = layers.BatchNormalization(ctx, shortcut, -1).Done()
	}
	return layers.Relu(Add(y, shortcut))
}

// bottleneckBlock is the 1x1/3x3/1x1 stack expanding to 4x filters.
func bottleneckBlock(ctx *context.Context, x *Node, filters, strides int) *Node {
	expanded := filters * 4
	shortcut := x
	y := x
	{
		ctx := ctx.In("conv1")
		y = layers.Convolution(ctx, y).KernelSize(1).Filters(filters).PadSame().Done()
		y = layers.BatchNormalization(ctx, y, -1).Done()
		y = layers.Relu(y)
	}
	{
		ctx := ctx.In("conv2")
		y = layers.Convolution(ctx, y).KernelSize(3).Filters(filters).Strides(strides).PadSame().Done()
		y = layers.BatchNormalization(ctx, y, -1).Done()
		y = layers.Relu(y)
	}
	{
		ctx := ctx.In("conv3")
		y = layers.Convolution(ctx, y).KernelSize(1).Filters(expanded).PadSame().Done()
		y = layers.BatchNormalization(ctx, y, -1).Done()
	}
	if strides != 1 || x.Shape().Dimensions[3] != expanded {
		ctx := ctx.In("shortcut")
		shortcut = layers.Convolution(ctx, x).KernelSize(1).Filters(expanded).Strides(strides).PadSame().Done()
		shortcut = layers.BatchNormalization(ctx, shortcut, -1).Done()
	}
	return layers.Relu(Add(y, shortcut))
}
