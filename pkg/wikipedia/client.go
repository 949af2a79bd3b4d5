// Package wikipedia enriches identified landmarks with article data.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"ciceronego/pkg/request"
)

// Client handles Wikipedia API interactions.
type Client struct {
	request     *request.Client
	APIEndpoint string // Optional override for testing
}

// NewClient creates a new Wikipedia client.
func NewClient(r *request.Client) *Client {
	return &Client{request: r}
}

func (c *Client) endpoint(lang string) string {
	if c.APIEndpoint != "" {
		return c.APIEndpoint
	}
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
}

// ResolveTitle searches for the article matching a landmark name.
// Returns the canonical title, or "" if nothing matched.
func (c *Client) ResolveTitle(ctx context.Context, name, lang string) (string, error) {
	u, _ := url.Parse(c.endpoint(lang))
	q := u.Query()
	q.Add("action", "query")
	q.Add("list", "search")
	q.Add("srsearch", name)
	q.Add("srlimit", "1")
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "wiki:search:"+lang+":"+name)
	if err != nil {
		return "", err
	}

	var apiResp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode json: %w", err)
	}

	if len(apiResp.Query.Search) == 0 {
		return "", nil
	}
	return apiResp.Query.Search[0].Title, nil
}

// GetSummary fetches the intro extract for a single article.
func (c *Client) GetSummary(ctx context.Context, title, lang string) (string, error) {
	u, _ := url.Parse(c.endpoint(lang))
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "extracts")
	q.Add("explaintext", "1")
	q.Add("exintro", "1")
	q.Add("titles", title)
	q.Add("format", "json")
	q.Add("redirects", "1")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "wiki:summary:"+lang+":"+title)
	if err != nil {
		return "", err
	}

	var apiResp struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode json: %w", err)
	}

	for _, page := range apiResp.Query.Pages {
		return page.Extract, nil
	}

	return "", fmt.Errorf("article not found: %s", title)
}

// GetThumbnail fetches the thumbnail URL for a Wikipedia article.
// Falls back to the first non-vector content image if no page image is designated.
func (c *Client) GetThumbnail(ctx context.Context, title, lang string) (string, error) {
	endpoint := c.endpoint(lang)

	// First try: pageimages (designated page image)
	u, _ := url.Parse(endpoint)
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "pageimages")
	q.Add("piprop", "thumbnail")
	q.Add("pithumbsize", "800")
	q.Add("titles", title)
	q.Add("format", "json")
	q.Add("redirects", "1")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "wiki:thumb:"+lang+":"+title)
	if err != nil {
		return "", err
	}

	var apiResp struct {
		Query struct {
			Pages map[string]struct {
				Thumbnail struct {
					Source string `json:"source"`
					Width  int    `json:"width"`
					Height int    `json:"height"`
				} `json:"thumbnail"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode json: %w", err)
	}

	for _, page := range apiResp.Query.Pages {
		if page.Thumbnail.Source != "" {
			if isUnwantedImage(page.Thumbnail.Source) {
				continue
			}
			// Reject vertical portraits; landmark photos rarely are.
			if page.Thumbnail.Width > 0 && float64(page.Thumbnail.Height) > float64(page.Thumbnail.Width)*1.3 {
				continue
			}

			return page.Thumbnail.Source, nil
		}
	}

	// Fallback: Get first content image that isn't unwanted
	return c.getFirstContentImage(ctx, title, lang, endpoint)
}

// getFirstContentImage fetches the first non-SVG image from the article's content.
func (c *Client) getFirstContentImage(ctx context.Context, title, lang, endpoint string) (string, error) {
	u, _ := url.Parse(endpoint)
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "images")
	q.Add("imlimit", "15")
	q.Add("titles", title)
	q.Add("format", "json")
	q.Add("redirects", "1")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return "", err
	}

	var imgResp struct {
		Query struct {
			Pages map[string]struct {
				Images []struct {
					Title string `json:"title"`
				} `json:"images"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return "", fmt.Errorf("failed to decode images json: %w", err)
	}

	// Find first valid image
	var imageTitle string
	for _, page := range imgResp.Query.Pages {
		for _, img := range page.Images {
			if isUnwantedImage(img.Title) {
				continue
			}
			imageTitle = img.Title
			break
		}
		if imageTitle != "" {
			break
		}
	}

	if imageTitle == "" {
		return "", nil // No suitable image found
	}

	return c.getImageURL(ctx, imageTitle, endpoint)
}

// getImageURL fetches the URL for a specific image file from Wikipedia.
func (c *Client) getImageURL(ctx context.Context, imageTitle, endpoint string) (string, error) {
	u, _ := url.Parse(endpoint)
	q := u.Query()
	q.Add("action", "query")
	q.Add("prop", "imageinfo")
	q.Add("iiprop", "url|size")
	q.Add("iiurlwidth", "800")
	q.Add("titles", imageTitle)
	q.Add("format", "json")
	u.RawQuery = q.Encode()

	body, err := c.request.Get(ctx, u.String(), "")
	if err != nil {
		return "", err
	}

	var infoResp struct {
		Query struct {
			Pages map[string]struct {
				ImageInfo []struct {
					ThumbURL string `json:"thumburl"`
					URL      string `json:"url"`
					Width    int    `json:"width"`
					Height   int    `json:"height"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &infoResp); err != nil {
		return "", fmt.Errorf("failed to decode imageinfo json: %w", err)
	}

	for _, page := range infoResp.Query.Pages {
		if len(page.ImageInfo) > 0 {
			info := page.ImageInfo[0]
			if info.Width > 0 && float64(info.Height) > float64(info.Width)*1.3 {
				return "", nil // Reject portrait aspect ratio
			}

			if info.ThumbURL != "" {
				return info.ThumbURL, nil
			}
			return info.URL, nil
		}
	}

	return "", nil
}

// isUnwantedImage checks if a filename or URL represents a vector graphic, icon, map, or other unwanted type.
func isUnwantedImage(name string) bool {
	lower := strings.ToLower(name)

	badExtensions := []string{".svg", ".svg.png", ".gif", ".tif", ".ogv", ".webm"}
	for _, ext := range badExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}

	badKeywords := []string{
		"logo", "icon", "flag", "coat of arms", "wappen", "insignia",
		"map", "locator", "plan", "diagram", "chart", "graph",
		"stub", "placeholder", "missing",
		"collage", "montage",
		"signature",
	}
	for _, kw := range badKeywords {
		if strings.Contains(lower, kw) {
			if kw == "map" && strings.Contains(lower, "maple") {
				continue
			}
			return true
		}
	}

	return false
}
