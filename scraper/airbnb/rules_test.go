package airbnb

import (
	"testing"

	"airbnb-reconciler/models"
)

func TestParseDetailRules(t *testing.T) {
	ref := models.ExternalListingRef{ID: "1", URL: room("1")}

	tests := []struct {
		name   string
		markup string
		want   models.RawDetail
	}{
		{
			name: "full page",
			markup: `<html><head><title>ignored - Airbnb</title></head><body>
				<h1>  Azure   North Loft </h1>
				<div><span>$1,250</span> <span>night</span></div>
				<ol><li>4 guests</li><li>2 bedrooms</li><li>1.5 baths</li></ol>
				<div data-section-id="LOCATION_DEFAULT"><h3>Where you'll be Tromsø, Norway</h3></div>
			</body></html>`,
			want: models.RawDetail{
				Title: "Azure North Loft", RawPrice: "$1,250 night", Location: "Tromsø, Norway",
				Guests: "4", Bedrooms: "2", Bathrooms: "1",
			},
		},
		{
			name:   "title from og meta with suffix",
			markup: `<head><meta property="og:title" content="Cedar Cabin · Airbnb"></head><body><p>Nothing else</p></body>`,
			want:   models.RawDetail{Title: "Cedar Cabin"},
		},
		{
			name:   "title from document title",
			markup: `<head><title>Harbour View Cottage - Airbnb</title></head>`,
			want:   models.RawDetail{Title: "Harbour View Cottage"},
		},
		{
			name:   "price without night keyword is absent",
			markup: `<h1>Studio</h1><p>Cleaning fee $40</p>`,
			want:   models.RawDetail{Title: "Studio"},
		},
		{
			name:   "price inside script is ignored",
			markup: `<h1>Studio</h1><script>var p = "$99 night";</script>`,
			want:   models.RawDetail{Title: "Studio"},
		},
		{
			name:   "fractional bathrooms keep the integer part",
			markup: `<h1>Studio</h1><ul><li>2.5 shared baths</li></ul>`,
			want:   models.RawDetail{Title: "Studio", Bathrooms: "2"},
		},
		{
			name:   "empty page",
			markup: ``,
			want:   models.RawDetail{},
		},
	}

	for _, tt := range tests {
		got := ParseDetail(ref, tt.markup)
		tt.want.Ref = ref
		if *got != tt.want {
			t.Errorf("%s:\n got  %+v\n want %+v", tt.name, *got, tt.want)
		}
	}
}
