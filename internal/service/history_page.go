package service

import "lan-stream/internal/storage"

// HistoryQuery filters and pages the history, newest first
type HistoryQuery struct {
	Kind   storage.Kind
	Limit  int
	Offset int
}

// HistoryPage is one page of history with the total number of matches
type HistoryPage struct {
	Messages []storage.Entry `json:"messages"`
	Total    int             `json:"total"`
}

// ------------------------------------------------------------------------------------------------------
// paginate reverses snapshot, applies the kind filter and then limit/offset.
// A non-positive limit returns everything after offset.
func paginate(snapshot []storage.Entry, q HistoryQuery) HistoryPage {
	matches := make([]storage.Entry, 0, len(snapshot))
	for i := len(snapshot) - 1; i >= 0; i-- {
		if q.Kind != "" && snapshot[i].Kind != q.Kind {
			continue
		}
		matches = append(matches, snapshot[i])
	}

	total := len(matches)
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < total {
		end = start + q.Limit
	}

	return HistoryPage{Messages: matches[start:end], Total: total}
}
