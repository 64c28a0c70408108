package main

import (
	"time"

	"view-counter/viewcount/domain"
	"view-counter/viewcount/infra"
)

func seedArticle(id domain.ItemID) domain.Item {
	return domain.Item{
		ID:          id,
		Type:        domain.DefaultItemType,
		Published:   true,
		PublishedAt: time.Now().Add(-time.Hour),
		Title:       "Hello",
	}
}

func newTestThrottle() *infra.ThrottleStore {
	return infra.NewThrottleStore(0.01, 1, infra.WithCleanupEvery(0))
}
