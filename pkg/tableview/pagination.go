package tableview

// maxButtons is how many page buttons the footer shows at most.
const maxButtons = 5

// PageNumbers returns the page buttons to show for current out of last.
// Up to five pages are all shown. Beyond that the first page is always
// shown, followed by four consecutive pages: 2-5 near the start, the last
// four near the end, and otherwise the current page and the three after it,
// shifted back so the window never passes the last page.
func PageNumbers(current, last int) []int {
	if last < 1 {
		return nil
	}
	if last <= maxButtons {
		return pageRange(1, last)
	}

	var start int
	switch {
	case current <= 2:
		start = 2
	case current > last-2:
		start = last - (maxButtons - 2)
	default:
		start = current
		if start+maxButtons-2 > last {
			start = last - (maxButtons - 2)
		}
	}
	return append([]int{1}, pageRange(start, start+maxButtons-2)...)
}

func pageRange(from, to int) []int {
	pages := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages
}
