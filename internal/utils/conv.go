package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// Page turns raw page/per-page query values into a 1-based page, a clamped
// page size and the row offset.
func Page(pageStr, perPageStr string, defaultPerPage, maxPerPage int) (page, perPage, offset int) {
	page = StringToInt(pageStr)
	if page < 1 {
		page = 1
	}
	perPage = StringToInt(perPageStr)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage, (page - 1) * perPage
}
