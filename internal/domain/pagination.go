package domain

// RecordsPage is one page of records plus the size of the whole result.
type RecordsPage struct {
	Items []Record `json:"items"`
	Total int64    `json:"total"`
}

// NextOffset calculates the offset of the following page.
// Returns -1 if there are no more pages.
func NextOffset(offset, limit int, total int64) int {
	next := offset + limit
	if limit <= 0 || int64(next) >= total {
		return -1
	}
	return next
}
