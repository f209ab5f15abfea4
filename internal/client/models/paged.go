package models

// PagedResult is one page of records. Items never exceeds PageSize and is
// empty whenever Total is zero.
type PagedResult struct {
	Items    []VehicleRecord
	Total    int
	Page     int
	PageSize int
}

// LastPage is the highest valid page for total records at pageSize; never
// less than 1.
func LastPage(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
