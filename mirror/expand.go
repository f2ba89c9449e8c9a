package mirror

import (
	"fmt"
	"iter"
	"strings"
)

// Placeholder marks the cube-face slot in a panorama tile URL template.
const Placeholder = "%s"

// Directions are the cube faces a panorama template expands to.
var Directions = []string{"f", "b", "l", "r", "u", "d"}

const (
	infoQuery   = "x-oss-process=image/info"
	resizeQuery = "x-oss-process=image/resize,w_256|image/quality,q_100|image/format,webp/quality,q_100"
	cropSuffix  = "image/indexcrop,x_512,i_%d|image/indexcrop,y_512,i_%d|image/quality,q_100|image/format,webp/quality,q_100"
)

// cropResizes are the widths a tile is scaled to before cropping; 0 keeps the native size.
var cropResizes = []int{0, 512, 1024}

// Expand yields the concrete URLs for a template. A URL without the
// placeholder yields only itself; a template yields 30 URLs per direction.
func Expand(rawURL string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !strings.Contains(rawURL, Placeholder) {
			yield(rawURL)
			return
		}

		for _, dir := range Directions {
			for u := range derivatives(strings.ReplaceAll(rawURL, Placeholder, dir)) {
				if !yield(u) {
					return
				}
			}
		}
	}
}

// derivatives yields a tile URL followed by its info, thumbnail and crop variants
func derivatives(tileURL string) iter.Seq[string] {
	return func(yield func(string) bool) {
		base, _, _ := strings.Cut(tileURL, "?")

		if !yield(tileURL) ||
			!yield(base+"?"+infoQuery) ||
			!yield(base+"?"+resizeQuery) {
			return
		}

		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				crop := fmt.Sprintf(cropSuffix, x, y)
				for _, w := range cropResizes {
					q := "x-oss-process=" + crop
					if w > 0 {
						q = fmt.Sprintf("x-oss-process=image/resize,w_%d|%s", w, crop)
					}
					if !yield(base + "?" + q) {
						return
					}
				}
			}
		}
	}
}
