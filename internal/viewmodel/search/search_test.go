package search

import (
	"context"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/domaintest"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/pkg/store"
)

var list = []restaurant.Restaurant{
	{ID: 1, Name: "Café Crème", Cuisine: "French", Location: "Tiong Bahru"},
	{ID: 2, Name: "Ramen Ya", Cuisine: "Japanese", Location: "Bugis"},
	{ID: 3, Name: "Über Grill", Cuisine: "German", Location: "Orchard Road"},
	{ID: 4, Name: "Sushi Go", Cuisine: "Japanese", Location: "Orchard  Road"},
}

func ids(rs []restaurant.Restaurant) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{1, 2, 3, 4}},
		{"   ", []int{1, 2, 3, 4}},
		{"cafe", []int{1}},
		{"CRÈME", []int{1}},
		{"uber", []int{3}},
		{"japanese", []int{2, 4}},
		{"orchard road", []int{3, 4}},
		{"japanese orchard", []int{4}},
		{"pizza", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(Filter(list, tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
				}
			}
		})
	}
}

func TestFold(t *testing.T) {
	if got := fold("  Crème   BRÛLÉE "); got != "creme brulee" {
		t.Errorf("fold() = %q", got)
	}
}

func TestViewModelFiltersAfterLoad(t *testing.T) {
	repo := &domaintest.Restaurants{List: list}
	vm := New(Deps{Restaurants: repo})
	defer vm.Close()

	// A query typed before the list arrives is applied once it does.
	if err := vm.SetQuery("ramen"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := store.WaitFor(ctx, vm.Store(), func(s State) bool { return len(s.Results) == 1 && !s.IsLoading })
	if err != nil {
		t.Fatalf("WaitFor() error = %v, state = %+v", err, vm.State())
	}
	if st.Results[0].ID != 2 {
		t.Errorf("Results = %v", ids(st.Results))
	}
	if repo.Calls() != 1 {
		t.Errorf("GetAll calls = %d, want 1", repo.Calls())
	}

	_ = vm.SetQuery("")
	st, err = store.WaitFor(ctx, vm.Store(), func(s State) bool { return s.Query == "" && len(s.Results) == len(list) })
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Results) != len(list) {
		t.Errorf("len(Results) = %d", len(st.Results))
	}
	if repo.Calls() != 1 {
		t.Error("changing the query must not refetch")
	}
}
