// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// commonsAPIBase is the Wikimedia Commons API endpoint, overridable in tests.
var commonsAPIBase = "https://commons.wikimedia.org/w/api.php"

const imagesPerArticle = 5

// Image is one Commons image with attribution.
type Image struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	ThumbURL       string `json:"thumb_url"`
	DescriptionURL string `json:"description_url"`
	Artist         string `json:"artist"`
	License        string `json:"license"`
}

// ImageSource finds illustration images for a research term.
type ImageSource interface {
	ImagesFor(ctx context.Context, term string) []Image
}

// CommonsFetcher fetches images from Wikimedia Commons.
type CommonsFetcher struct {
	Client    *http.Client
	UserAgent string
}

// ImagesFor returns up to five images for term, repeating the first image
// when Commons has fewer. Fetch failures yield an empty slice; articles
// render without images rather than failing.
func (f *CommonsFetcher) ImagesFor(ctx context.Context, term string) []Image {
	images, err := f.search(ctx, term, imagesPerArticle)
	if err != nil || len(images) == 0 {
		return nil
	}
	for len(images) < imagesPerArticle {
		images = append(images, images[0])
	}
	return images[:imagesPerArticle]
}

func (f *CommonsFetcher) search(ctx context.Context, term string, limit int) ([]Image, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrnamespace", "6")
	params.Set("gsrsearch", term)
	params.Set("gsrlimit", strconv.Itoa(limit))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|size|mime|extmetadata")
	params.Set("iiurlwidth", "800")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, commonsAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Query struct {
			Pages map[string]struct {
				Title     string `json:"title"`
				ImageInfo []struct {
					URL            string `json:"url"`
					ThumbURL       string `json:"thumburl"`
					DescriptionURL string `json:"descriptionurl"`
					ExtMetadata    map[string]struct {
						Value string `json:"value"`
					} `json:"extmetadata"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing image response: %w", err)
	}

	var images []Image
	for _, page := range payload.Query.Pages {
		if len(page.ImageInfo) == 0 {
			continue
		}
		info := page.ImageInfo[0]
		images = append(images, Image{
			Title:          page.Title,
			URL:            info.URL,
			ThumbURL:       info.ThumbURL,
			DescriptionURL: info.DescriptionURL,
			Artist:         info.ExtMetadata["Artist"].Value,
			License:        info.ExtMetadata["LicenseShortName"].Value,
		})
	}
	return images, nil
}

var htmlTag = regexp.MustCompile(`<[^<]+?>`)

// imageHTML renders one section image with attribution and a fallback.
func imageHTML(img Image, term, sectionName string, width, height int, defaultImage string) string {
	artist := img.Artist
	if strings.Contains(artist, "<") {
		artist = htmlTag.ReplaceAllString(artist, "")
	}
	if len(artist) > 100 {
		artist = artist[:100]
	}

	src := img.ThumbURL
	if src == "" {
		src = img.URL
	}

	licenseNote := ""
	if img.License != "" {
		licenseNote = fmt.Sprintf(" | License: %s", img.License)
	}

	return fmt.Sprintf(`<div class="article-image-container">
    <img class="img-fluid section-image"
         src="%s"
         alt="%s - %s"
         style="width: 100%%; max-width: %dpx; height: %dpx; object-fit: cover; display: block; margin: 0 auto;"
         onerror="this.src='%s'">
    <span class="caption text-muted">
        %s | Photo: %s |
        <a href="%s" target="_blank" rel="noopener">Source</a>%s
    </span>
</div>
`, src, term, sectionName, width, height, defaultImage, term, artist, img.DescriptionURL, licenseNote)
}
