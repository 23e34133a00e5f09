package models

// PaginationMetadata holds information about the pagination state.
type PaginationMetadata struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// PaginatedResponse wraps one page of list results.
type PaginatedResponse struct {
	Data       any                `json:"data"`
	Pagination PaginationMetadata `json:"pagination"`
}
