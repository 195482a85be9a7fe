package utils

// Page is the pagination envelope returned by list-shaped tools. Each item
// carries its absolute position in the full result set under the "offset"
// key, so a follow-up request can resume exactly where this page ended.
type Page struct {
	Items      []map[string]any `json:"items"`
	TotalItems int              `json:"totalItems"`
	Offset     int              `json:"offset"`
	Limit      int              `json:"limit"`
	HasMore    bool             `json:"hasMore"`
	NextOffset *int             `json:"nextOffset"`
}

// Paginate slices an already-sorted result set into one page. Offsets past
// the end yield an empty page rather than an error.
func Paginate(items []map[string]any, offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	total := len(items)

	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]map[string]any, 0, end-start)
	for i, item := range items[start:end] {
		copied := make(map[string]any, len(item)+1)
		for k, v := range item {
			copied[k] = v
		}
		copied["offset"] = start + i
		page = append(page, copied)
	}

	result := Page{
		Items:      page,
		TotalItems: total,
		Offset:     offset,
		Limit:      limit,
		HasMore:    end < total,
	}
	if result.HasMore {
		next := end
		result.NextOffset = &next
	}

	return result
}
