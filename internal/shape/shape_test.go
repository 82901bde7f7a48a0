package shape

import (
	"errors"
	"testing"
)

func TestResolveConcreteShapeIsIdempotent(t *testing.T) {
	t.Parallel()
	got, err := Resolve("input", []int64{1, 3, 224, 224}, 1, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []int64{1, 3, 224, 224}
	assertShape(t, got, want)
}

func TestResolveForcesBatchDimension(t *testing.T) {
	t.Parallel()
	// Batch is caller-controlled: a concrete runtime batch of 1 is replaced.
	got, err := Resolve("input", []int64{1, 3, 224, 224}, 8, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got[0] != 8 {
		t.Fatalf("expected batch dimension 8, got %d", got[0])
	}
}

func TestResolveDynamicBatchOnly(t *testing.T) {
	t.Parallel()
	got, err := Resolve("input", []int64{Dynamic, 3, 224, 224}, 2, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertShape(t, got, []int64{2, 3, 224, 224})
}

func TestResolveDynamicDimsWithoutOverrideFails(t *testing.T) {
	t.Parallel()
	_, err := Resolve("input", []int64{Dynamic, 3, Dynamic, Dynamic}, 1, nil)
	if !errors.Is(err, ErrMissingOverride) {
		t.Fatalf("expected ErrMissingOverride, got %v", err)
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Tensor != "input" {
		t.Fatalf("expected ResolutionError naming the tensor, got %v", err)
	}
}

func TestResolveFillsDynamicSlotsLeftToRight(t *testing.T) {
	t.Parallel()
	got, err := Resolve("input", []int64{Dynamic, 3, Dynamic, Dynamic}, 2, []int64{224, 224})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertShape(t, got, []int64{2, 3, 224, 224})
}

func TestResolveOverrideArityEnforced(t *testing.T) {
	t.Parallel()
	shape := []int64{Dynamic, 3, Dynamic, Dynamic}

	for _, override := range [][]int64{{224}, {3, 224, 224}} {
		_, err := Resolve("input", shape, 2, override)
		if !errors.Is(err, ErrDimensionCount) {
			t.Fatalf("override %v: expected ErrDimensionCount, got %v", override, err)
		}
	}

	var resErr *ResolutionError
	_, err := Resolve("input", shape, 2, []int64{224})
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Want != 2 || resErr.Got != 1 {
		t.Fatalf("expected want=2 got=1 in error, got want=%d got=%d", resErr.Want, resErr.Got)
	}
}

func TestResolveConcreteShapeWithFullOverride(t *testing.T) {
	t.Parallel()
	got, err := Resolve("input", []int64{1, 3, 224, 224}, 4, []int64{3, 640, 640})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertShape(t, got, []int64{4, 3, 640, 640})
}

func TestResolveConcreteShapeWithPartialOverrideFails(t *testing.T) {
	t.Parallel()
	_, err := Resolve("input", []int64{1, 3, 224, 224}, 4, []int64{640, 640})
	if !errors.Is(err, ErrDimensionCount) {
		t.Fatalf("expected ErrDimensionCount, got %v", err)
	}
}

func TestResolveRejectsEmptyShapeAndBadBatch(t *testing.T) {
	t.Parallel()
	if _, err := Resolve("input", nil, 1, nil); err == nil {
		t.Fatal("expected error for empty shape")
	}
	if _, err := Resolve("input", []int64{1, 3}, 0, nil); err == nil {
		t.Fatal("expected error for non-positive batch size")
	}
}

func TestResolveRejectsNonPositiveOverrideValues(t *testing.T) {
	t.Parallel()
	if _, err := Resolve("input", []int64{Dynamic, 3, Dynamic}, 1, []int64{-1}); err == nil {
		t.Fatal("expected error for dynamic override value")
	}
}

func TestResolvePostcondition(t *testing.T) {
	t.Parallel()
	got, err := Resolve("boxes", []int64{Dynamic, Dynamic, 4}, 3, []int64{100})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got[0] != 3 {
		t.Fatalf("postcondition violated: shape[0]=%d, want 3", got[0])
	}
	for i, d := range got {
		if IsDynamic(d) {
			t.Fatalf("postcondition violated: dynamic dim at %d in %v", i, got)
		}
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	runtimeShape := []int64{Dynamic, 3, 224, 224}
	if _, err := Resolve("input", runtimeShape, 2, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if runtimeShape[0] != Dynamic {
		t.Fatalf("runtime shape mutated: %v", runtimeShape)
	}
}

func TestFullyDynamic(t *testing.T) {
	t.Parallel()
	// Zero dims count as dynamic: runtimes signal dynamism inconsistently.
	if !FullyDynamic([]int64{-1, 0, -1}) {
		t.Fatal("expected all-non-positive shape to be fully dynamic")
	}
	if FullyDynamic([]int64{-1, 3}) {
		t.Fatal("shape with a static dim is not fully dynamic")
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()
	assertShape(t, Placeholder(0, 2), []int64{2, -1})
	assertShape(t, Placeholder(1, 2), []int64{2, -1})
	assertShape(t, Placeholder(4, 2), []int64{2, -1, -1, -1})
}

func TestNumElementsSkipsDynamicDims(t *testing.T) {
	t.Parallel()
	if n := NumElements([]int64{2, 3, 224, 224}); n != 301056 {
		t.Fatalf("expected 301056 elements, got %d", n)
	}
	if n := NumElements([]int64{2, -1, 4}); n != 8 {
		t.Fatalf("expected dynamic dims skipped, got %d", n)
	}
}

func assertShape(t *testing.T, got, want []int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("shape length: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("shape mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}
