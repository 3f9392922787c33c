package restaurant

import "sort"

// FeaturedCount is the number of restaurants shown in the featured section.
const FeaturedCount = 5

// Favourites returns the indices of list whose favourite flag is set, in
// list order.
func Favourites(list []Restaurant) []int {
	out := make([]int, 0, len(list))
	for i, r := range list {
		if r.IsFavouriteByCurrentUser {
			out = append(out, i)
		}
	}
	return out
}

// Featured returns the indices of the min(n, len(list)) highest rated
// restaurants, best first. Equal ratings keep list order.
func Featured(list []Restaurant, n int) []int {
	if n <= 0 || len(list) == 0 {
		return []int{}
	}

	idx := make([]int, len(list))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return list[idx[a]].AverageRating > list[idx[b]].AverageRating
	})

	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n:n]
}

// IndexOf returns the position of the restaurant with id, or -1.
func IndexOf(list []Restaurant, id int) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// WithFavourite returns a copy of list where the restaurant at i has its
// favourite flag set to fav. list itself is not modified.
func WithFavourite(list []Restaurant, i int, fav bool) []Restaurant {
	out := make([]Restaurant, len(list))
	copy(out, list)
	out[i].IsFavouriteByCurrentUser = fav
	return out
}
