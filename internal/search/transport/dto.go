package transport

import (
	"time"

	"member_portal_backend/internal/search/repository"

	"github.com/google/uuid"
)

// ResultItem is a single search hit in the API response.
type ResultItem struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResponse is the API representation of a search result set.
type SearchResponse struct {
	Items []ResultItem `json:"items"`
	Total int          `json:"total"`
}

// ToSearchResponse maps repository results to the API shape.
func ToSearchResponse(results []repository.Result) SearchResponse {
	items := make([]ResultItem, len(results))
	for i, r := range results {
		items[i] = ResultItem{ID: r.ID, Type: r.Type, Title: r.Title, Preview: r.Preview, CreatedAt: r.CreatedAt}
	}
	return SearchResponse{Items: items, Total: len(items)}
}
