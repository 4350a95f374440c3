package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/promobot/core/logger"
)

const component = "service.media"

// MaxTitleLen bounds item titles so list replies stay one line per item.
const MaxTitleLen = 120

const defaultLatestLimit = 5

// ValidateURL accepts absolute http or https links and returns the trimmed value.
func ValidateURL(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("that does not look like a link")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("the link must start with http:// or https://")
	}
	if u.Host == "" {
		return "", fmt.Errorf("the link is missing a host")
	}
	return link, nil
}

// NormalizeTitle trims a title and enforces the length bound.
func NormalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("the title must not be empty")
	}
	if len(title) > MaxTitleLen {
		return "", fmt.Errorf("the title must be at most %d characters", MaxTitleLen)
	}
	return title, nil
}

// Service wraps a Store with link and title validation.
type Service struct {
	store Store
}

// NewService builds a media service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add validates and stores one item under a fresh ID.
func (s *Service) Add(ctx context.Context, actorID int64, rawURL, rawTitle string) (Item, error) {
	link, err := ValidateURL(rawURL)
	if err != nil {
		return Item{}, err
	}
	title, err := NormalizeTitle(rawTitle)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ID:      uuid.NewString(),
		URL:     link,
		Title:   title,
		AddedBy: actorID,
	}
	if err := s.store.Insert(ctx, item); err != nil {
		logger.Error(ctx, component, "media.add",
			slog.String("media_id", item.ID),
			slog.String("err", err.Error()),
		)
		return Item{}, fmt.Errorf("save item: %w", err)
	}
	logger.Info(ctx, component, "media.add", slog.String("media_id", item.ID))
	return item, nil
}

// Remove deletes an item and reports whether it existed.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("item id required")
	}
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	if existed {
		logger.Info(ctx, component, "media.remove", slog.String("media_id", id))
	}
	return existed, nil
}

// Latest returns up to limit newest items; limit <= 0 uses the default.
func (s *Service) Latest(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = defaultLatestLimit
	}
	items, err := s.store.Latest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Random picks one item from the pool; ErrEmpty when there is none.
func (s *Service) Random(ctx context.Context) (Item, error) {
	item, err := s.store.Random(ctx)
	if err != nil {
		return Item{}, err
	}
	logger.Debug(ctx, component, "media.pick", slog.String("media_id", item.ID))
	return item, nil
}

// Count returns the number of stored items.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
