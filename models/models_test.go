package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepth(t *testing.T) {
	assert.Equal(t, 20, Depth(3, 1))
	assert.Equal(t, 29, Depth(3, 2))
	assert.Equal(t, 56, Depth(9, 1))
	assert.Equal(t, 110, Depth(18, 1))
	assert.Equal(t, 164, Depth(18, 2))
}

func TestAttentionName(t *testing.T) {
	name, err := AttentionName("senet")
	require.NoError(t, err)
	assert.Equal(t, "AttentionLeNet5_SeNet", name)

	name, err = AttentionName("official")
	require.NoError(t, err)
	assert.Equal(t, "AttentionLeNet5_Official", name)

	_, err = AttentionName("luong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "luong")
}

func TestByNameDispatch(t *testing.T) {
	names := append([]string{}, Available...)
	names = append(names, "AttentionLeNet5_Official", "AttentionLeNet5_SeNet")
	for _, name := range names {
		fn, err := ByName(name, 10)
		require.NoError(t, err, name)
		assert.NotNil(t, fn, name)
	}
	_, err := ByName("VGG16", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VGG16")
}

func TestNewCIFAR(t *testing.T) {
	for _, version := range []int{1, 2} {
		fn, err := NewCIFAR(3, version, 10)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	}
	_, err := NewCIFAR(3, 3, 10)
	require.Error(t, err)
	_, err = NewCIFAR(0, 1, 10)
	require.Error(t, err)
}

func TestIsAvailable(t *testing.T) {
	assert.True(t, IsAvailable("LeNet5"))
	assert.True(t, IsAvailable("ResNet152"))
	assert.False(t, IsAvailable("AttentionLeNet5_SeNet"))
	assert.False(t, IsAvailable("resnet18"))
}
