package service

import (
	"testing"

	"lan-stream/internal/storage"
)

func TestPaginate(t *testing.T) {
	snapshot := []storage.Entry{
		{ID: "1", Kind: storage.KindText},
		{ID: "2", Kind: storage.KindFile},
		{ID: "3", Kind: storage.KindText},
		{ID: "4", Kind: storage.KindFile},
		{ID: "5", Kind: storage.KindText},
	}

	tests := []struct {
		name      string
		query     HistoryQuery
		wantIDs   []string
		wantTotal int
	}{
		{name: "all newest first", query: HistoryQuery{}, wantIDs: []string{"5", "4", "3", "2", "1"}, wantTotal: 5},
		{name: "files only", query: HistoryQuery{Kind: storage.KindFile}, wantIDs: []string{"4", "2"}, wantTotal: 2},
		{name: "limit", query: HistoryQuery{Limit: 2}, wantIDs: []string{"5", "4"}, wantTotal: 5},
		{name: "limit and offset", query: HistoryQuery{Limit: 2, Offset: 3}, wantIDs: []string{"2", "1"}, wantTotal: 5},
		{name: "offset past end", query: HistoryQuery{Limit: 2, Offset: 10}, wantIDs: []string{}, wantTotal: 5},
		{name: "negative offset", query: HistoryQuery{Limit: 1, Offset: -3}, wantIDs: []string{"5"}, wantTotal: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := paginate(snapshot, tt.query)
			if page.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, page.Total)
			}
			if len(page.Messages) != len(tt.wantIDs) {
				t.Fatalf("Expected %v, got %d messages", tt.wantIDs, len(page.Messages))
			}
			for i, id := range tt.wantIDs {
				if page.Messages[i].ID != id {
					t.Errorf("Expected %v at %d, got %s", id, i, page.Messages[i].ID)
				}
			}
		})
	}
}
