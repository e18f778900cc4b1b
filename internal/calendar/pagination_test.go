package calendar

import "testing"

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	p := Paginate(items, 1, 3)
	if len(p.Items) != 3 || !p.HasNext || p.HasPrev || p.Pages != 3 {
		t.Fatalf("page 1: %+v", p)
	}

	p = Paginate(items, 3, 3)
	if len(p.Items) != 1 || p.Items[0] != 7 || p.HasNext || !p.HasPrev {
		t.Fatalf("page 3: %+v", p)
	}

	// страница за пределами прижимается к последней
	p = Paginate(items, 10, 3)
	if p.Page != 3 || len(p.Items) != 1 {
		t.Fatalf("page 10: %+v", p)
	}

	p = Paginate([]int{}, 1, 3)
	if p.Pages != 1 || len(p.Items) != 0 || p.HasNext {
		t.Fatalf("empty: %+v", p)
	}
}
