// Package media resolves image and video URLs for rendering.
package media

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/blazehunter/internal/models"
)

// Kind tells the page which element renders a background.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var videoExt = regexp.MustCompile(`(?i)\.(mp4|webm|ogg)$`)

// Background is a resolved home page background.
type Background struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`
}

// Backgrounds holds the resolved desktop and mobile backgrounds. A nil field
// means the stored URL was empty and the page keeps what it has.
type Backgrounds struct {
	PC     *Background `json:"pc"`
	Mobile *Background `json:"mobile"`
}

// IsVideo reports whether url names a video file by extension.
func IsVideo(url string) bool {
	return videoExt.MatchString(url)
}

// ResolveBackground classifies url. Images get a v=<unix ms> parameter so a
// replaced file is fetched again; videos are returned unchanged.
func ResolveBackground(url string, now time.Time) *Background {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if IsVideo(url) {
		return &Background{Kind: KindVideo, URL: url}
	}
	return &Background{Kind: KindImage, URL: bust(url, now)}
}

// ResolveBackgrounds resolves both URLs of s. The mobile background is always
// an image.
func ResolveBackgrounds(s models.HomeSettings, now time.Time) Backgrounds {
	out := Backgrounds{PC: ResolveBackground(s.BgPcURL, now)}
	if mobile := strings.TrimSpace(s.BgMobileURL); mobile != "" {
		out.Mobile = &Background{Kind: KindImage, URL: bust(mobile, now)}
	}
	return out
}

func bust(url string, now time.Time) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "v=" + strconv.FormatInt(now.UnixMilli(), 10)
}
