package types

// Page selects a 1-based page of a list
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// PageResult is a page of items together with the total count
type PageResult[T any] struct {
	Items []T
	Count int64
}

// PaginatedResponse is the list envelope returned by paginated endpoints
type PaginatedResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
