package tensor

import (
	"slices"
	"testing"
)

func TestIndexSharesStorage(t *testing.T) {
	x := New(2, 3, 4)
	row := x.Index(1)
	if !slices.Equal(row.Shape, []int{3, 4}) {
		t.Fatalf("Index shape = %v", row.Shape)
	}
	row.Data[0] = 7
	if x.Data[12] != 7 {
		t.Error("Index did not return a view")
	}
}

func TestNarrow(t *testing.T) {
	x := FromData([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	n := x.Narrow(2)
	if !slices.Equal(n.Shape, []int{2, 2}) || !slices.Equal(n.Data, []float32{1, 2, 3, 4}) {
		t.Errorf("Narrow(2) = %v %v", n.Shape, n.Data)
	}
}

func TestSqueeze(t *testing.T) {
	x := New(1, 5, 3, 2, 2)
	s, err := x.Squeeze()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.Shape, []int{5, 3, 2, 2}) {
		t.Errorf("Squeeze shape = %v", s.Shape)
	}
	if _, err := New(2, 3).Squeeze(); err == nil {
		t.Error("Squeeze of leading 2 succeeded")
	}
}

func TestFromDataPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FromData did not panic")
		}
	}()
	FromData([]float32{1, 2, 3}, 2, 2)
}

func TestGomlx(t *testing.T) {
	x := FromData([]float32{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	g := x.Gomlx()
	if !slices.Equal(g.Shape().Dimensions, []int{1, 2, 3}) {
		t.Errorf("gomlx dims = %v", g.Shape().Dimensions)
	}
}
