// Package service implements portal-wide search across events, notices, and
// consultations. The per-entity queries run concurrently and the merged
// result set is ordered newest first.
package service

import (
	"context"
	"sort"
	"strings"

	"member_portal_backend/internal/search/repository"
	"member_portal_backend/platform/apperr"
	"member_portal_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const defaultLimit = 10

// Service coordinates cross-entity search.
type Service struct {
	store repository.Store
	log   *logger.Logger
}

// New creates a search service.
func New(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Search runs the query against every entity type concurrently. An empty
// query returns no results. The limit applies per entity type.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]repository.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []repository.Result{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}

	pattern := "%" + escapeLike(query) + "%"

	var events, notices, consultations []repository.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.store.SearchEvents(gctx, pattern, limit)
		return err
	})
	g.Go(func() error {
		var err error
		notices, err = s.store.SearchNotices(gctx, pattern, limit)
		return err
	})
	g.Go(func() error {
		var err error
		consultations, err = s.store.SearchConsultations(gctx, pattern, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Storage("search.query", err)
	}

	merged := make([]repository.Result, 0, len(events)+len(notices)+len(consultations))
	merged = append(merged, events...)
	merged = append(merged, notices...)
	merged = append(merged, consultations...)

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}

// escapeLike neutralizes LIKE metacharacters in user input.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
