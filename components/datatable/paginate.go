package datatable

// TotalPages returns max(1, ceil(count/pageSize)).
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns rows[(page-1)*pageSize : page*pageSize], bounded by the
// slice length. Out-of-range pages yield an empty page.
func Paginate(rows []Row, page, pageSize int) []Row {
	if pageSize <= 0 || page < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return []Row{}
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return append([]Row(nil), rows[start:end]...)
}

// pageBounds returns the 1-based inclusive range of rows shown on a page, or
// (0, 0) for an empty page.
func pageBounds(total, page, pageSize int) (int, int) {
	if total == 0 || pageSize <= 0 {
		return 0, 0
	}
	from := (page-1)*pageSize + 1
	if from > total {
		return 0, 0
	}
	to := page * pageSize
	if to > total {
		to = total
	}
	return from, to
}
