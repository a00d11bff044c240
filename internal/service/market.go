// Package service sits between the HTTP handlers and the upstream client:
// one fetch, one normalization pass, no caching. Records live only for the
// duration of the request that produced them.
package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/davidversegaming/prediction-market-explorer/internal/model"
	"github.com/davidversegaming/prediction-market-explorer/internal/normalize"
	"github.com/davidversegaming/prediction-market-explorer/internal/upstream"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the upstream responded but carried no record.
var ErrNotFound = errors.New("record not found")

// ListFilter carries the upstream list query parameters.
type ListFilter struct {
	Limit     int
	Order     string
	Ascending bool
	Active    bool
	Closed    bool
	Tag       string
}

// DefaultListFilter matches the defaults the UI's landing page expects:
// the 50 highest-volume open events.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:     50,
		Order:     "volume",
		Ascending: false,
		Active:    true,
		Closed:    false,
	}
}

func (f ListFilter) values() url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(f.Limit))
	params.Set("order", f.Order)
	params.Set("ascending", strconv.FormatBool(f.Ascending))
	params.Set("active", strconv.FormatBool(f.Active))
	params.Set("closed", strconv.FormatBool(f.Closed))
	if f.Tag != "" {
		params.Set("tag", f.Tag)
	}
	return params
}

// MarketService fetches and normalizes market data for the UI.
type MarketService struct {
	client     *upstream.Client
	normalizer *normalize.Normalizer
	logger     *logrus.Logger
}

// NewMarketService creates a MarketService.
func NewMarketService(client *upstream.Client, logger *logrus.Logger) *MarketService {
	return &MarketService{
		client:     client,
		normalizer: normalize.New(logger),
		logger:     logger,
	}
}

// ListEvents returns the normalized event list for the given filter.
func (s *MarketService) ListEvents(ctx context.Context, filter ListFilter) ([]model.Event, error) {
	body, err := s.client.Get(ctx, "/events", filter.values())
	if err != nil {
		return nil, err
	}
	return s.normalizer.Events(body), nil
}

// GetEventBySlug returns one normalized event. ErrNotFound when the upstream
// responds with an empty or null record; upstream 404s surface as
// *upstream.StatusError.
func (s *MarketService) GetEventBySlug(ctx context.Context, slug string) (model.Event, error) {
	body, err := s.client.Get(ctx, "/events/"+url.PathEscape(slug), nil)
	if err != nil {
		return model.Event{}, err
	}
	event, ok := s.normalizer.Event(body)
	if !ok {
		s.logger.WithField("slug", slug).Warn("Upstream returned no event record")
		return model.Event{}, ErrNotFound
	}
	return event, nil
}

// ListMarkets returns the normalized flat market list for the given filter.
func (s *MarketService) ListMarkets(ctx context.Context, filter ListFilter) ([]model.Market, error) {
	body, err := s.client.Get(ctx, "/markets", filter.values())
	if err != nil {
		return nil, err
	}
	return s.normalizer.Markets(body), nil
}

// GetMarketByID returns one normalized market by its upstream id or slug.
func (s *MarketService) GetMarketByID(ctx context.Context, id string) (model.Market, error) {
	body, err := s.client.Get(ctx, "/markets/"+url.PathEscape(id), nil)
	if err != nil {
		return model.Market{}, err
	}
	market, ok := s.normalizer.Market(body)
	if !ok {
		s.logger.WithField("id", id).Warn("Upstream returned no market record")
		return model.Market{}, ErrNotFound
	}
	return market, nil
}
