package pages

// Pages keep at most this many thumbnails.
const maxThumbs = 5

// Thumbnailer produces thumbnail references for a page's image list.
// Resizing itself is an external collaborator; implementations may simply
// map URLs to pre-rendered paths.
type Thumbnailer interface {
	Thumbs(imageURLs []string, slug string) ([]string, error)
}

// NopThumbnailer produces no thumbnails.
type NopThumbnailer struct{}

func (NopThumbnailer) Thumbs([]string, string) ([]string, error) { return nil, nil }

// PassthroughThumbnailer reuses the first maxThumbs full-size image URLs as
// thumbnails, for sites that downscale client-side.
type PassthroughThumbnailer struct{}

func (PassthroughThumbnailer) Thumbs(imageURLs []string, _ string) ([]string, error) {
	if len(imageURLs) > maxThumbs {
		imageURLs = imageURLs[:maxThumbs]
	}
	return append([]string(nil), imageURLs...), nil
}
