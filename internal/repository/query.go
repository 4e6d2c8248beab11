package repository

import (
	"fitformula/api/internal/domain"
)

// SortOrder is the ordering applied to history results.
type SortOrder int

const (
	// NewestFirst orders by createdAt descending, ties broken by ID descending.
	NewestFirst SortOrder = iota
	// OldestFirst orders by createdAt ascending, ties broken by ID ascending.
	OldestFirst
)

// HistoryFilter is the equality predicate of a history query.
// A zero Type matches every plan kind.
type HistoryFilter struct {
	UserID string
	Type   domain.PlanType
}

// HistoryQuery is a typed history lookup: an equality filter plus a sort key.
type HistoryQuery struct {
	Filter HistoryFilter
	Order  SortOrder
}

// NewHistoryQuery returns a query for every plan owned by userID, newest first.
func NewHistoryQuery(userID string) HistoryQuery {
	return HistoryQuery{
		Filter: HistoryFilter{UserID: userID},
		Order:  NewestFirst,
	}
}

// OfType narrows the query to one plan kind. An empty type leaves it unfiltered.
func (q HistoryQuery) OfType(t domain.PlanType) HistoryQuery {
	q.Filter.Type = t
	return q
}

// Ordered returns a copy of the query with a different sort order.
func (q HistoryQuery) Ordered(o SortOrder) HistoryQuery {
	q.Order = o
	return q
}

// Matches reports whether item satisfies the query's filter.
func (q HistoryQuery) Matches(item domain.PlanHistoryItem) bool {
	if item.UserID != q.Filter.UserID {
		return false
	}
	if q.Filter.Type != "" && item.Type != q.Filter.Type {
		return false
	}
	return true
}

// Less reports whether a sorts before b under the query's order.
func (q HistoryQuery) Less(a, b domain.PlanHistoryItem) bool {
	if q.Order == OldestFirst {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
