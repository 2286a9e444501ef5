package media

import (
	"fmt"
	"strings"
)

// ImageKitEndpoint is the CDN prefix whose images can be transformed.
const ImageKitEndpoint = "https://ik.imagekit.io/blazehunter/"

// GridSizes is the sizes attribute used by the banner grid.
const GridSizes = "(min-width: 1025px) 30vw, (min-width: 769px) 45vw, 90vw"

var breakpoints = []int{640, 750, 828, 1080, 1200, 1920, 2048, 3840}

// ImageAttributes are the img attributes for one grid item.
type ImageAttributes struct {
	Src    string `json:"src"`
	SrcSet string `json:"srcset,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
	Alt    string `json:"alt"`
}

// IsImageKit reports whether url is served from the ImageKit endpoint.
func IsImageKit(url string) bool {
	return url != "" && strings.Contains(url, ImageKitEndpoint)
}

// Responsive returns img attributes for url. ImageKit URLs get an automatic
// format, at-max crop and a width srcset; other URLs pass through.
func Responsive(url, alt string) ImageAttributes {
	if !IsImageKit(url) {
		return ImageAttributes{Src: url, Alt: alt}
	}

	path := strings.TrimPrefix(url[strings.Index(url, ImageKitEndpoint):], ImageKitEndpoint)
	set := make([]string, 0, len(breakpoints))
	for _, w := range breakpoints {
		set = append(set, fmt.Sprintf("%s %dw", transform(path, w), w))
	}

	return ImageAttributes{
		Src:    transform(path, breakpoints[len(breakpoints)-1]),
		SrcSet: strings.Join(set, ", "),
		Sizes:  GridSizes,
		Alt:    alt,
	}
}

func transform(path string, width int) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%str=w-%d,f-auto,c-at_max", ImageKitEndpoint, path, sep, width)
}
