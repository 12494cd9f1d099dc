package blocks

import "testing"

func TestAllocAssignsDenseIndices(t *testing.T) {
	s := New[int](4)
	for want := uint32(0); want < 10; want++ {
		idx, p := s.Alloc()
		if idx != want {
			t.Fatalf("Alloc returned index %d, want %d", idx, want)
		}
		*p = int(want)
	}
	if s.Len() != 10 {
		t.Fatalf("Len = %d, want 10", s.Len())
	}
}

func TestAddressesStableAcrossGrowth(t *testing.T) {
	s := New[int](2)
	idx, p := s.Alloc()
	*p = 42

	// Force several new segments.
	for i := 0; i < 20; i++ {
		s.Alloc()
	}

	if got := s.Get(idx); got != p {
		t.Fatalf("address of slot %d moved after growth", idx)
	}
	if *p != 42 {
		t.Fatalf("slot contents = %d, want 42", *p)
	}
}

func TestFreeListReuse(t *testing.T) {
	s := New[int](4)
	a, _ := s.Alloc()
	b, _ := s.Alloc()
	s.Free(a)
	s.Free(b)

	// Reuse happens in LIFO order.
	if idx, _ := s.Alloc(); idx != b {
		t.Fatalf("first reuse = %d, want %d", idx, b)
	}
	if idx, _ := s.Alloc(); idx != a {
		t.Fatalf("second reuse = %d, want %d", idx, a)
	}
	if idx, _ := s.Alloc(); idx != 2 {
		t.Fatalf("post-reuse alloc = %d, want fresh index 2", idx)
	}
}

func TestRangeVisitsHighWater(t *testing.T) {
	s := New[int](4)
	for i := 0; i < 6; i++ {
		_, p := s.Alloc()
		*p = i
	}
	seen := 0
	s.Range(func(idx uint32, v *int) bool {
		if *v != int(idx) {
			t.Fatalf("slot %d holds %d", idx, *v)
		}
		seen++
		return true
	})
	if seen != 6 {
		t.Fatalf("Range visited %d slots, want 6", seen)
	}
}
