package searchcrawl

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
)

// EnginePreset names a group of search engines.
type EnginePreset string

// Supported engine presets.
const (
	PresetGeneral EnginePreset = "general"
	PresetImages  EnginePreset = "images"
)

var enginePresets = map[EnginePreset][]string{
	PresetGeneral: {"brave", "duckduckgo", "google", "presearch", "startpage", "yahoo"},
	PresetImages:  {"bing images", "duckduckgo images", "google images", "startpage images"},
}

// Engines returns the sorted engine names of a preset, or nil for an unknown preset.
func (p EnginePreset) Engines() []string {
	engines, ok := enginePresets[p]
	if !ok {
		return nil
	}
	out := slices.Clone(engines)
	slices.Sort(out)
	return out
}

// Time ranges accepted by SearchRequest.TimeRange.
const (
	TimeRangeDay   = "day"
	TimeRangeMonth = "month"
	TimeRangeYear  = "year"
)

// SearchRequest describes a metasearch query.
type SearchRequest struct {
	Query string `json:"q"`

	// Engines lists engines explicitly. When empty, Preset applies.
	Engines []string     `json:"engines,omitempty"`
	Preset  EnginePreset `json:"preset,omitempty"`

	Language  string `json:"language"`
	Page      int    `json:"page"`
	TimeRange string `json:"timeRange,omitempty"`

	// MaxResults truncates the result list. Zero means no limit.
	MaxResults int `json:"-"`

	Cache CachePolicy `json:"-"`
}

// NewSearchRequest returns a request for q with default settings.
func NewSearchRequest(q string) *SearchRequest {
	return &SearchRequest{
		Query:    q,
		Preset:   PresetGeneral,
		Language: "en",
		Page:     1,
		Cache:    DefaultCachePolicy(),
	}
}

// EngineList returns the engines to query, resolving the preset when no
// engines are set explicitly.
func (r *SearchRequest) EngineList() []string {
	if len(r.Engines) > 0 {
		return r.Engines
	}
	preset := r.Preset
	if preset == "" {
		preset = PresetGeneral
	}
	return preset.Engines()
}

// Validate returns an error if the request contains invalid fields.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return Errorf(EINVALID, "search query required")
	}
	if len(r.Engines) == 0 && r.Preset != "" && r.Preset.Engines() == nil {
		return Errorf(EINVALID, "unknown engine preset %q", r.Preset)
	}
	if r.Page < 1 {
		return Errorf(EINVALID, "search page must be at least 1")
	}
	switch r.TimeRange {
	case "", TimeRangeDay, TimeRangeMonth, TimeRangeYear:
	default:
		return Errorf(EINVALID, "unknown time range %q", r.TimeRange)
	}
	if r.MaxResults < 0 {
		return Errorf(EINVALID, "max results must not be negative")
	}
	return r.Cache.Validate()
}

// CacheKey identifies the upstream query. Requests that differ only in
// MaxResults or cache policy share a key.
func (r *SearchRequest) CacheKey() string {
	key := struct {
		Query     string   `json:"q"`
		Engines   []string `json:"engines"`
		Language  string   `json:"language"`
		Page      int      `json:"page"`
		TimeRange string   `json:"time_range,omitempty"`
	}{r.Query, r.EngineList(), r.Language, r.Page, r.TimeRange}
	b, _ := json.Marshal(key)
	return "search:" + string(b)
}

// SearchResult is a single hit returned by a Searcher.
type SearchResult struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Thumbnail string `json:"thumbnail,omitempty"`
	ImgSrc    string `json:"img_src,omitempty"`
}

// Searcher runs queries against a metasearch engine.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) ([]*SearchResult, error)
}

// SearchCrawlResult pairs a search hit with the pages crawled from it.
type SearchCrawlResult struct {
	*SearchResult
	Pages []*ScrapeResult `json:"pages"`
}
