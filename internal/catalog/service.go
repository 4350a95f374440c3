package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
)

const component = "service.catalog"

// Service wraps a Store with code normalization and link validation.
type Service struct {
	store    Store
	pageSize int
}

// NewService builds a catalog service; pageSize bounds listing pages.
func NewService(store Store, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Service{store: store, pageSize: pageSize}
}

// PageSize returns the configured page length.
func (s *Service) PageSize() int {
	return s.pageSize
}

func buildEntry(code, docURL, affiliateURL string, affRequired bool) (Entry, error) {
	normalized, err := NormalizeCode(code)
	if err != nil {
		return Entry{}, err
	}
	doc, err := ValidateURL(docURL)
	if err != nil {
		return Entry{}, fmt.Errorf("doc link: %w", err)
	}
	e := Entry{Code: normalized, DocURL: doc}
	if !affRequired && strings.TrimSpace(affiliateURL) == "" {
		return e, nil
	}
	aff, err := ValidateURL(affiliateURL)
	if err != nil {
		return Entry{}, fmt.Errorf("affiliate link: %w", err)
	}
	e.AffiliateURL = aff
	return e, nil
}

// Add validates and saves one entry. The second return reports whether a new
// code was created or an existing one had its links replaced.
func (s *Service) Add(ctx context.Context, actorID int64, code, docURL, affiliateURL string) (Entry, bool, error) {
	e, err := buildEntry(code, docURL, affiliateURL, true)
	if err != nil {
		return Entry{}, false, err
	}
	e.AddedBy = actorID
	created, err := s.store.Upsert(ctx, e)
	if err != nil {
		logger.Error(ctx, component, "catalog.add",
			slog.String("code", e.Code),
			slog.String("err", err.Error()),
		)
		return Entry{}, false, fmt.Errorf("save entry: %w", err)
	}
	logger.Info(ctx, component, "catalog.add",
		slog.String("code", e.Code),
		slog.Bool("created", created),
	)
	return e, created, nil
}

// Lookup resolves a code typed in chat. Text that cannot be a code at all
// misses without touching the store.
func (s *Service) Lookup(ctx context.Context, raw string) (Entry, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return Entry{}, ErrNotFound
	}
	e, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Debug(ctx, component, "catalog.lookup",
				slog.String("code", code),
				slog.Bool("found", false),
			)
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("lookup %s: %w", code, err)
	}
	logger.Debug(ctx, component, "catalog.lookup",
		slog.String("code", code),
		slog.Bool("found", true),
	)
	return e, nil
}

// Remove deletes an entry and reports whether it existed.
func (s *Service) Remove(ctx context.Context, raw string) (bool, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return false, err
	}
	existed, err := s.store.Delete(ctx, code)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", code, err)
	}
	if existed {
		logger.Info(ctx, component, "catalog.remove", slog.String("code", code))
	}
	return existed, nil
}

// Page returns one listing page (1-based) and the total entry count.
func (s *Service) Page(ctx context.Context, page int) ([]Entry, int, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}
	offset := (page - 1) * s.pageSize
	if offset >= total {
		return nil, total, nil
	}
	entries, err := s.store.List(ctx, offset, s.pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	return entries, total, nil
}

// Count returns the number of stored entries.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
