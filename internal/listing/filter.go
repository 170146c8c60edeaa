package listing

import (
	"strings"

	"carlist/internal/domain"
)

// MatchesModel checks if an item's model contains the query, ignoring case
func MatchesModel(item domain.Item, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Model), strings.ToLower(query))
}

// Filter returns the subsequence of items matching query as a new collection
func Filter(items []domain.Item, query string) domain.Collection {
	lowerQuery := strings.ToLower(query)

	matched := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Model), lowerQuery) {
			matched = append(matched, item)
		}
	}
	return domain.NewCollection(matched)
}
