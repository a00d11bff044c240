// Package normalize reconciles the upstream API's inconsistent response
// shapes into the canonical model. The upstream schema drifted across
// iterations (flat market lists, nested event/market hierarchies, a
// {results: [...]} wrapper with snake_case fields, double-encoded array
// fields), so every payload goes through explicit shape detection before
// mapping. Nothing in this package returns an error: malformed fields degrade
// to zero values and an unrecognized payload degrades to an empty result set.
package normalize

import (
	"bytes"
	"encoding/json"

	"github.com/davidversegaming/prediction-market-explorer/internal/metrics"
	"github.com/davidversegaming/prediction-market-explorer/internal/model"
	"github.com/sirupsen/logrus"
)

// Shape identifies which of the known upstream payload layouts a raw body
// matches. Detection is structural and ordered; no shape is assumed by
// default.
type Shape string

const (
	ShapeEvents  Shape = "events"  // array of event objects, possibly with nested markets
	ShapeResults Shape = "results" // {results: [...]} wrapper with snake_case fields
	ShapeMarkets Shape = "markets" // flat array of market objects
	ShapeUnknown Shape = "unknown"
)

// DetectShape inspects the payload structure and picks the mapping rule.
// First match wins: an array of event-shaped elements (title or markets
// present), then the results wrapper, then a flat market list.
func DetectShape(raw []byte) Shape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeUnknown
	}

	switch trimmed[0] {
	case '[':
		var probe []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return ShapeUnknown
		}
		if len(probe) == 0 {
			return ShapeEvents
		}
		if _, ok := probe[0]["title"]; ok {
			return ShapeEvents
		}
		if _, ok := probe[0]["markets"]; ok {
			return ShapeEvents
		}
		return ShapeMarkets
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return ShapeUnknown
		}
		if _, ok := probe["results"]; ok {
			return ShapeResults
		}
		return ShapeUnknown
	}
	return ShapeUnknown
}

// Normalizer maps raw upstream payloads into canonical records. It holds no
// state beyond the logger; the same input always yields the same output.
type Normalizer struct {
	logger *logrus.Logger
}

// New creates a Normalizer.
func New(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// rawTag matches upstream tag objects.
type rawTag struct {
	ID    flexString `json:"id"`
	Label string     `json:"label"`
	Slug  string     `json:"slug"`
}

// rawMarket matches upstream market objects across iterations: question vs
// title, volume as string vs volumeNum as number, outcomes either
// double-encoded or plain arrays.
type rawMarket struct {
	ID             flexString      `json:"id"`
	Slug           string          `json:"slug"`
	Question       string          `json:"question"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Outcomes       json.RawMessage `json:"outcomes"`
	OutcomePrices  json.RawMessage `json:"outcomePrices"`
	Volume         flexFloat       `json:"volume"`
	VolumeNum      flexFloat       `json:"volumeNum"`
	Liquidity      flexFloat       `json:"liquidity"`
	LiquidityNum   flexFloat       `json:"liquidityNum"`
	Active         bool            `json:"active"`
	Closed         bool            `json:"closed"`
	BestBid        flexFloat       `json:"bestBid"`
	BestAsk        flexFloat       `json:"bestAsk"`
	LastTradePrice flexFloat       `json:"lastTradePrice"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Image          string          `json:"image"`
	Icon           string          `json:"icon"`
}

// rawEvent matches upstream event objects. Older iterations attached outcome
// data directly to the event instead of a nested market.
type rawEvent struct {
	ID            flexString      `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Image         string          `json:"image"`
	Icon          string          `json:"icon"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
	Volume        flexFloat       `json:"volume"`
	Liquidity     flexFloat       `json:"liquidity"`
	StartDate     string          `json:"startDate"`
	EndDate       string          `json:"endDate"`
	Tags          []rawTag        `json:"tags"`
	Markets       []rawMarket     `json:"markets"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
}

// rawResult matches the {results: [...]} wrapper's snake_case records.
type rawResult struct {
	ID          flexString `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Volume      flexFloat  `json:"volume"`
	Liquidity   flexFloat  `json:"liquidity"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Tags        []rawTag   `json:"tags"`
	Status      struct {
		Active bool `json:"active"`
		Closed bool `json:"closed"`
	} `json:"status"`
}

type resultsEnvelope struct {
	Results []rawResult `json:"results"`
}

// Events normalizes a list payload of any recognized shape into Events.
// A flat market list yields one Event per market with no event-level fields;
// an unrecognized payload yields an empty slice.
func (n *Normalizer) Events(raw []byte) []model.Event {
	shape := DetectShape(raw)
	metrics.PayloadsNormalized.WithLabelValues(string(shape)).Inc()

	switch shape {
	case ShapeEvents:
		var rawEvents []rawEvent
		if err := json.Unmarshal(raw, &rawEvents); err != nil {
			n.logger.WithError(err).Warn("Event list decode failed")
			return []model.Event{}
		}
		events := make([]model.Event, 0, len(rawEvents))
		for _, re := range rawEvents {
			events = append(events, n.event(re))
		}
		return events

	case ShapeResults:
		var env resultsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			n.logger.WithError(err).Warn("Results envelope decode failed")
			return []model.Event{}
		}
		events := make([]model.Event, 0, len(env.Results))
		for _, rr := range env.Results {
			events = append(events, n.resultEvent(rr))
		}
		return events

	case ShapeMarkets:
		markets := n.marketList(raw)
		events := make([]model.Event, 0, len(markets))
		for _, m := range markets {
			events = append(events, model.Event{
				ID:        m.ID,
				Slug:      m.Slug,
				Title:     m.Question,
				Active:    m.Active,
				Closed:    m.Closed,
				Volume:    m.Volume,
				Liquidity: m.Liquidity,
				StartDate: m.StartDate,
				EndDate:   m.EndDate,
				Tags:      []model.Tag{},
				Markets:   []model.Market{m},
			})
		}
		return events
	}

	n.logger.Warn("Unrecognized upstream payload shape, returning empty event set")
	return []model.Event{}
}

// Markets normalizes a list payload into a flat market list. Events are
// flattened in upstream order.
func (n *Normalizer) Markets(raw []byte) []model.Market {
	shape := DetectShape(raw)
	metrics.PayloadsNormalized.WithLabelValues(string(shape)).Inc()

	switch shape {
	case ShapeMarkets:
		return n.marketList(raw)

	case ShapeEvents:
		var rawEvents []rawEvent
		if err := json.Unmarshal(raw, &rawEvents); err != nil {
			n.logger.WithError(err).Warn("Event list decode failed")
			return []model.Market{}
		}
		markets := make([]model.Market, 0, len(rawEvents))
		for _, re := range rawEvents {
			markets = append(markets, n.event(re).Markets...)
		}
		return markets

	case ShapeResults:
		var env resultsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			n.logger.WithError(err).Warn("Results envelope decode failed")
			return []model.Market{}
		}
		markets := make([]model.Market, 0, len(env.Results))
		for _, rr := range env.Results {
			markets = append(markets, n.resultMarket(rr))
		}
		return markets
	}

	n.logger.Warn("Unrecognized upstream payload shape, returning empty market set")
	return []model.Market{}
}

// Event normalizes a single-record payload (detail endpoints). Some upstream
// iterations return the object bare, others as a one-element array. The
// second return is false when no record could be extracted.
func (n *Normalizer) Event(raw []byte) (model.Event, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return model.Event{}, false
	}

	if trimmed[0] == '[' {
		events := n.Events(trimmed)
		if len(events) == 0 {
			return model.Event{}, false
		}
		return events[0], true
	}

	var re rawEvent
	if err := json.Unmarshal(trimmed, &re); err != nil {
		n.logger.WithError(err).Warn("Event decode failed")
		return model.Event{}, false
	}
	if re.ID == "" && re.Slug == "" && re.Title == "" {
		return model.Event{}, false
	}
	return n.event(re), true
}

// Market normalizes a single market detail payload.
func (n *Normalizer) Market(raw []byte) (model.Market, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return model.Market{}, false
	}

	if trimmed[0] == '[' {
		var rawMarkets []rawMarket
		if err := json.Unmarshal(trimmed, &rawMarkets); err != nil || len(rawMarkets) == 0 {
			return model.Market{}, false
		}
		return n.market(rawMarkets[0]), true
	}

	var rm rawMarket
	if err := json.Unmarshal(trimmed, &rm); err != nil {
		n.logger.WithError(err).Warn("Market decode failed")
		return model.Market{}, false
	}
	if rm.ID == "" && rm.Slug == "" && rm.Question == "" && rm.Title == "" {
		return model.Market{}, false
	}
	return n.market(rm), true
}

func (n *Normalizer) marketList(raw []byte) []model.Market {
	var rawMarkets []rawMarket
	if err := json.Unmarshal(raw, &rawMarkets); err != nil {
		n.logger.WithError(err).Warn("Market list decode failed")
		return []model.Market{}
	}
	markets := make([]model.Market, 0, len(rawMarkets))
	for _, rm := range rawMarkets {
		markets = append(markets, n.market(rm))
	}
	return markets
}

func (n *Normalizer) event(re rawEvent) model.Event {
	ev := model.Event{
		ID:          string(re.ID),
		Slug:        re.Slug,
		Title:       re.Title,
		Description: re.Description,
		Category:    re.Category,
		Image:       re.Image,
		Icon:        re.Icon,
		Active:      re.Active,
		Closed:      re.Closed,
		Volume:      float64(re.Volume),
		Liquidity:   float64(re.Liquidity),
		StartDate:   re.StartDate,
		EndDate:     re.EndDate,
		Tags:        make([]model.Tag, 0, len(re.Tags)),
		Markets:     make([]model.Market, 0, len(re.Markets)),
	}

	for _, t := range re.Tags {
		ev.Tags = append(ev.Tags, model.Tag{ID: string(t.ID), Label: t.Label, Slug: t.Slug})
	}
	for _, rm := range re.Markets {
		ev.Markets = append(ev.Markets, n.market(rm))
	}

	// Older iterations put outcome data on the event itself. Nested market
	// detail wins when both are present; the top-level pair is only used when
	// no market carries it, by synthesizing a single market so the odds are
	// not lost.
	if len(ev.Markets) == 0 {
		if labels, prices, ok := n.odds(re.Outcomes, re.OutcomePrices); ok {
			ev.Markets = append(ev.Markets, n.market(rawMarket{
				ID:            re.ID,
				Slug:          re.Slug,
				Title:         re.Title,
				Description:   re.Description,
				Outcomes:      asJSONArray(labels),
				OutcomePrices: asJSONArray(prices),
				Volume:        re.Volume,
				Liquidity:     re.Liquidity,
				Active:        re.Active,
				Closed:        re.Closed,
				StartDate:     re.StartDate,
				EndDate:       re.EndDate,
				Image:         re.Image,
				Icon:          re.Icon,
			}))
		}
	}

	return ev
}

func (n *Normalizer) resultEvent(rr rawResult) model.Event {
	ev := model.Event{
		ID:          string(rr.ID),
		Slug:        rr.Slug,
		Title:       rr.Title,
		Description: rr.Description,
		Active:      rr.Status.Active,
		Closed:      rr.Status.Closed,
		Volume:      float64(rr.Volume),
		Liquidity:   float64(rr.Liquidity),
		StartDate:   rr.StartDate,
		EndDate:     rr.EndDate,
		Tags:        make([]model.Tag, 0, len(rr.Tags)),
		Markets:     []model.Market{},
	}
	for _, t := range rr.Tags {
		ev.Tags = append(ev.Tags, model.Tag{ID: string(t.ID), Label: t.Label, Slug: t.Slug})
	}
	return ev
}

// resultMarket flattens a snake_case result record into a Market; results
// records carry no outcome data, so odds are empty.
func (n *Normalizer) resultMarket(rr rawResult) model.Market {
	return model.Market{
		ID:               string(rr.ID),
		Slug:             rr.Slug,
		Question:         rr.Title,
		Description:      rr.Description,
		Outcomes:         []string{},
		OutcomePrices:    []string{},
		Odds:             []model.Outcome{},
		Volume:           float64(rr.Volume),
		Liquidity:        float64(rr.Liquidity),
		Active:           rr.Status.Active,
		Closed:           rr.Status.Closed,
		StartDate:        rr.StartDate,
		EndDate:          rr.EndDate,
		LastTradeDisplay: LastTradeDisplay(0),
	}
}

func (n *Normalizer) market(rm rawMarket) model.Market {
	question := rm.Question
	if question == "" {
		question = rm.Title
	}

	m := model.Market{
		ID:               string(rm.ID),
		Slug:             rm.Slug,
		Question:         question,
		Description:      rm.Description,
		Outcomes:         []string{},
		OutcomePrices:    []string{},
		Odds:             []model.Outcome{},
		Volume:           pickFloat(rm.VolumeNum, rm.Volume),
		Liquidity:        pickFloat(rm.LiquidityNum, rm.Liquidity),
		Active:           rm.Active,
		Closed:           rm.Closed,
		BestBid:          float64(rm.BestBid),
		BestAsk:          float64(rm.BestAsk),
		LastTradePrice:   float64(rm.LastTradePrice),
		StartDate:        rm.StartDate,
		EndDate:          rm.EndDate,
		Image:            rm.Image,
		Icon:             rm.Icon,
	}
	m.LastTradeDisplay = LastTradeDisplay(m.LastTradePrice)

	if labels, prices, ok := n.odds(rm.Outcomes, rm.OutcomePrices); ok {
		m.Outcomes = labels
		m.OutcomePrices = prices
		m.Odds = make([]model.Outcome, 0, len(labels))
		for i, label := range labels {
			price := coerceFloat(prices[i])
			m.Odds = append(m.Odds, model.Outcome{
				Label:   label,
				Price:   price,
				Display: FormatPercent(price),
			})
		}
	}

	return m
}

// odds applies the decode-or-empty policy to an outcome/price pair. Both
// sides must decode and have the same nonzero length, otherwise the pair is
// unusable and odds are reported unavailable.
func (n *Normalizer) odds(outcomes, prices json.RawMessage) ([]string, []string, bool) {
	if len(outcomes) == 0 && len(prices) == 0 {
		return nil, nil, false
	}

	labels := decodeStringArray(outcomes)
	values := decodeStringArray(prices)
	if len(labels) == 0 || len(labels) != len(values) {
		metrics.OddsDegraded.Inc()
		n.logger.WithFields(logrus.Fields{
			"outcomes": len(labels),
			"prices":   len(values),
		}).Debug("Unusable outcome/price pair, odds unavailable")
		return nil, nil, false
	}
	return labels, values, true
}

// pickFloat prefers the numeric-typed field when the upstream sends both the
// stringified and the *Num variant.
func pickFloat(num, str flexFloat) float64 {
	if num != 0 {
		return float64(num)
	}
	return float64(str)
}

// asJSONArray re-encodes a string slice for reuse through the market mapping
// path. Encoding a []string cannot fail.
func asJSONArray(values []string) json.RawMessage {
	b, _ := json.Marshal(values)
	return b
}
