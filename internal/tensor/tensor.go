// Package tensor holds the dense float32 buffers handed to training code.
// Layout is row-major; sub-tensors along the leading axis share storage.
package tensor

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Tensor is a row-major float32 array with a shape.
type Tensor struct {
	Shape []int
	Data  []float32
}

// New allocates a zeroed tensor of the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float32, numElements(shape))}
}

// FromData wraps data with shape. It panics if the sizes disagree.
func FromData(data []float32, shape ...int) *Tensor {
	if n := numElements(shape); n != len(data) {
		panic(fmt.Sprintf("tensor: %d elements do not fill shape %v (%d)", len(data), shape, n))
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.Shape) }

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int { return t.Shape[i] }

// Index returns element i along the leading axis as a view.
func (t *Tensor) Index(i int) *Tensor {
	stride := numElements(t.Shape[1:])
	return &Tensor{Shape: append([]int(nil), t.Shape[1:]...), Data: t.Data[i*stride : (i+1)*stride]}
}

// Narrow returns the first n elements along the leading axis as a view.
func (t *Tensor) Narrow(n int) *Tensor {
	stride := numElements(t.Shape[1:])
	shape := append([]int{n}, t.Shape[1:]...)
	return &Tensor{Shape: shape, Data: t.Data[:n*stride]}
}

// Squeeze drops a leading axis of size 1.
func (t *Tensor) Squeeze() (*Tensor, error) {
	if len(t.Shape) == 0 || t.Shape[0] != 1 {
		return nil, fmt.Errorf("tensor: cannot squeeze leading axis of shape %v", t.Shape)
	}
	return t.Index(0), nil
}

// Gomlx copies t into a gomlx tensor for GoMLX training loops.
func (t *Tensor) Gomlx() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(append([]float32(nil), t.Data...), t.Shape...)
}

func (t *Tensor) String() string { return fmt.Sprintf("Tensor%v", t.Shape) }

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
