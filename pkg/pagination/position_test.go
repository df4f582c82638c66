package pagination

import (
	"fmt"
	"testing"
)

func TestLocate_Mapping(t *testing.T) {
	for perPage := 1; perPage <= 7; perPage++ {
		for progress := 0; progress < 50; progress++ {
			page, offset := Locate(progress, perPage)
			if page != progress/perPage+1 {
				t.Fatalf("Locate(%d, %d) page = %d", progress, perPage, page)
			}
			if offset != progress%perPage {
				t.Fatalf("Locate(%d, %d) offset = %d", progress, perPage, offset)
			}
			// Reconstructing the counter from (page, offset) must round-trip.
			if (page-1)*perPage+offset != progress {
				t.Fatalf("Locate(%d, %d) = (%d, %d) does not round-trip", progress, perPage, page, offset)
			}
		}
	}
}

func TestLocate_PageBoundaries(t *testing.T) {
	for _, perPage := range []int{1, 2, 3, 6} {
		for k := 1; k <= 4; k++ {
			t.Run(fmt.Sprintf("per_page_%d_k_%d", perPage, k), func(t *testing.T) {
				page, offset := Locate(k*perPage-1, perPage)
				if page != k || offset != perPage-1 {
					t.Errorf("last of page %d: got (%d, %d), want (%d, %d)", k, page, offset, k, perPage-1)
				}

				page, offset = Locate(k*perPage, perPage)
				if page != k+1 || offset != 0 {
					t.Errorf("first of page %d: got (%d, %d), want (%d, 0)", k+1, page, offset, k+1)
				}
			})
		}
	}
}

func TestLocate_Unaddressable(t *testing.T) {
	tests := []struct {
		name     string
		progress int
		perPage  int
	}{
		{name: "zero per page", progress: 3, perPage: 0},
		{name: "negative per page", progress: 3, perPage: -2},
		{name: "negative progress", progress: -1, perPage: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, offset := Locate(tt.progress, tt.perPage)
			if page != 0 || offset != 0 {
				t.Errorf("Locate(%d, %d) = (%d, %d), want (0, 0)", tt.progress, tt.perPage, page, offset)
			}
		})
	}
}

func TestLocate_OriginalExample(t *testing.T) {
	// Progress 7 with six per page lives on page 2 at index 1.
	page, offset := Locate(7, 6)
	if page != 2 || offset != 1 {
		t.Errorf("Locate(7, 6) = (%d, %d), want (2, 1)", page, offset)
	}
}
