package service

const maxPageSize = 100

// normalizePage clamps list paging. A zero limit means "no paging".
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
