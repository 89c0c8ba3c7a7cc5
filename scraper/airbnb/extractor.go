package airbnb

import (
	"regexp"
	"strings"

	"airbnb-reconciler/models"
	"airbnb-reconciler/utils"
)

// roomPathRegexp matches listing detail paths, including the JSON-escaped
// form (`\/rooms\/123`) found in embedded page state.
var roomPathRegexp = regexp.MustCompile(`\\?/rooms\\?/(\d+)`)

// Extractor finds listing identifiers in raw page markup.
type Extractor struct {
	baseURL string
}

// NewExtractor creates an Extractor that builds canonical URLs under baseURL.
func NewExtractor(baseURL string) *Extractor {
	return &Extractor{baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract returns one ref per distinct listing id referenced in markup.
// The markup does not need to be well formed. The result is in first
// occurrence order for readability only; callers must treat it as a set.
// No match yields an empty, non-nil slice.
func (e *Extractor) Extract(markup string) []models.ExternalListingRef {
	ids := utils.NewIDSet()
	for _, m := range roomPathRegexp.FindAllStringSubmatch(markup, -1) {
		ids.Add(m[1])
	}

	refs := make([]models.ExternalListingRef, 0, ids.Size())
	for _, id := range ids.Items() {
		refs = append(refs, e.Ref(id))
	}
	return refs
}

// Ref pairs id with its canonical detail URL.
func (e *Extractor) Ref(id string) models.ExternalListingRef {
	return models.ExternalListingRef{ID: id, URL: models.ListingURL(e.baseURL, id)}
}
