package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/weiawesome/track-resolver/internal/config"
	"github.com/weiawesome/track-resolver/internal/domain"
)

const (
	ytmusicClientName = "WEB_REMIX"
	ytmusicOrigin     = "https://music.youtube.com"

	// Longest upstream body excerpt carried in an error message.
	maxErrorBody = 512
)

// Search params tokens understood by the InnerTube search endpoint.
var ytmusicFilterParams = map[domain.Filter]string{
	domain.FilterSongs:  "EgWKAQIIAWoMEA4QChADEAQQCRAF",
	domain.FilterVideos: "EgWKAQIQAWoMEA4QChADEAQQCRAF",
}

// gjson paths into the InnerTube search response.
const (
	pathTabbedSections = "contents.tabbedSearchResultsRenderer.tabs.0.tabRenderer.content.sectionListRenderer.contents"
	pathSections       = "contents.sectionListRenderer.contents"
	pathPlaylistItemID = "playlistItemData.videoId"
	pathOverlayWatch   = "overlay.musicItemThumbnailOverlayRenderer.content.musicPlayButtonRenderer.playNavigationEndpoint.watchEndpoint"
	pathMusicVideoType = "watchEndpointMusicSupportedConfigs.watchEndpointMusicConfig.musicVideoType"
	pathArtistPageType = "navigationEndpoint.browseEndpoint.browseEndpointContextSupportedConfigs.browseEndpointContextMusicConfig.pageType"
)

type ytmusicRepository struct {
	cfg    config.YTMusicConfig
	client *http.Client
}

// NewYTMusicRepository creates a catalog repository backed by the YouTube Music
// InnerTube search API. A nil httpClient uses http.DefaultClient; deadlines come
// from the request context.
func NewYTMusicRepository(cfg config.YTMusicConfig, httpClient *http.Client) CatalogRepository {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ytmusicRepository{
		cfg:    cfg,
		client: httpClient,
	}
}

type ytmusicSearchRequest struct {
	Context ytmusicContext `json:"context"`
	Query   string         `json:"query"`
	Params  string         `json:"params,omitempty"`
}

type ytmusicContext struct {
	Client struct {
		ClientName    string `json:"clientName"`
		ClientVersion string `json:"clientVersion"`
		HL            string `json:"hl,omitempty"`
	} `json:"client"`
	User struct{} `json:"user"`
}

func (r *ytmusicRepository) Search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error) {
	body := ytmusicSearchRequest{
		Query:  query,
		Params: ytmusicFilterParams[filter],
	}
	body.Context.Client.ClientName = ytmusicClientName
	body.Context.Client.ClientVersion = r.cfg.ClientVersion
	body.Context.Client.HL = r.cfg.Language

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	endpoint := strings.TrimRight(r.cfg.BaseURL, "/") + "/search?alt=json&prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", ytmusicOrigin)
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ytmusic search request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("ytmusic search failed (status %d): %s", res.StatusCode, excerpt(raw))
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("ytmusic returned a malformed search response")
	}

	root := gjson.ParseBytes(raw)
	if e := root.Get("error"); e.Exists() {
		return nil, fmt.Errorf("ytmusic error: %s", e.Get("message").String())
	}

	return parseYTMusicSearch(root, filter), nil
}

// parseYTMusicSearch collects playable entries in display order: the top
// result card first, then every shelf. Entries without a video id (artists,
// albums, playlists) are not candidates.
func parseYTMusicSearch(root gjson.Result, filter domain.Filter) []domain.Candidate {
	sections := root.Get(pathTabbedSections)
	if !sections.Exists() {
		sections = root.Get(pathSections)
	}

	candidates := make([]domain.Candidate, 0)
	seen := make(map[string]struct{})
	add := func(c domain.Candidate) {
		if c.VideoID == "" {
			return
		}
		if _, dup := seen[c.VideoID]; dup {
			return
		}
		seen[c.VideoID] = struct{}{}
		if filter == domain.FilterSongs {
			c.ResultType = "song"
		} else if filter == domain.FilterVideos {
			c.ResultType = "video"
		}
		candidates = append(candidates, c)
	}

	sections.ForEach(func(_, section gjson.Result) bool {
		if card := section.Get("musicCardShelfRenderer"); card.Exists() {
			add(parseTopResultCard(card))
			card.Get("contents").ForEach(func(_, item gjson.Result) bool {
				add(parseListItem(item.Get("musicResponsiveListItemRenderer")))
				return true
			})
		}
		section.Get("musicShelfRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			add(parseListItem(item.Get("musicResponsiveListItemRenderer")))
			return true
		})
		return true
	})

	return candidates
}

func parseTopResultCard(card gjson.Result) domain.Candidate {
	title := card.Get("title.runs.0")
	watch := title.Get("navigationEndpoint.watchEndpoint")
	if !watch.Exists() {
		watch = card.Get("thumbnailOverlay.musicItemThumbnailOverlayRenderer.content.musicPlayButtonRenderer.playNavigationEndpoint.watchEndpoint")
	}

	return domain.Candidate{
		VideoID:    watch.Get("videoId").String(),
		Title:      title.Get("text").String(),
		Artists:    artistsFromRuns(card.Get("subtitle.runs")),
		ResultType: resultTypeFromWatch(watch),
	}
}

func parseListItem(item gjson.Result) domain.Candidate {
	if !item.Exists() {
		return domain.Candidate{}
	}

	watch := item.Get(pathOverlayWatch)
	videoID := item.Get(pathPlaylistItemID).String()
	if videoID == "" {
		videoID = watch.Get("videoId").String()
	}

	columns := item.Get("flexColumns")
	return domain.Candidate{
		VideoID:    videoID,
		Title:      columns.Get("0.musicResponsiveListItemFlexColumnRenderer.text.runs.0.text").String(),
		Artists:    artistsFromRuns(columns.Get("1.musicResponsiveListItemFlexColumnRenderer.text.runs")),
		ResultType: resultTypeFromWatch(watch),
	}
}

func artistsFromRuns(runs gjson.Result) []string {
	var artists []string
	runs.ForEach(func(_, run gjson.Result) bool {
		if run.Get(pathArtistPageType).String() == "MUSIC_PAGE_TYPE_ARTIST" {
			artists = append(artists, run.Get("text").String())
		}
		return true
	})
	return artists
}

func resultTypeFromWatch(watch gjson.Result) string {
	switch watch.Get(pathMusicVideoType).String() {
	case "MUSIC_VIDEO_TYPE_ATV":
		return "song"
	case "":
		return ""
	default:
		return "video"
	}
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
