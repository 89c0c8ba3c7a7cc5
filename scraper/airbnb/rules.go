package airbnb

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"airbnb-reconciler/models"
)

var (
	// siteSuffixRegexp strips the " - Airbnb" style suffix of page titles.
	siteSuffixRegexp = regexp.MustCompile(`(?i)\s*[-|·–—]\s*airbnb\s*$`)

	// nightlyPriceRegexp finds a dollar amount directly followed by a night
	// keyword. Only the first hit in document order is used: this is a low
	// confidence heuristic and can pick an unrelated amount (a cleaning fee
	// quoted "per night", a struck-through price) ahead of the real one.
	nightlyPriceRegexp = regexp.MustCompile(`(?i)\$\s*[0-9][0-9,]*(?:\.[0-9]{1,2})?\s*(?:USD\s*)?(?:per\s+night|/\s*night|a\s+night|night)`)

	guestsRegexp   = regexp.MustCompile(`(?i)\b(\d+)\s*guests?\b`)
	bedroomsRegexp = regexp.MustCompile(`(?i)\b(\d+)\s*bedrooms?\b`)
	// bathroomsRegexp keeps only the integer part of a fractional count:
	// "1.5 baths" is read as 1.
	bathroomsRegexp = regexp.MustCompile(`(?i)\b(\d+)(?:\.\d+)?\s*(?:private\s+|shared\s+)?(?:baths?|bathrooms?)\b`)

	whereYoullBeRegexp = regexp.MustCompile(`(?i)^where you[’']ll be\s*`)
)

var (
	titleSelectors = []string{
		"h1",
		`[data-section-id="TITLE_DEFAULT"] h2`,
	}
	locationSelectors = []string{
		`[data-testid="listing-location"]`,
		`[data-section-id="LOCATION_DEFAULT"] h3`,
		`[class*="location"]`,
		`[data-section-id="LOCATION_DEFAULT"]`,
	}
)

// maxLocationLen rejects location candidates that are clearly a whole
// section of prose rather than a place name.
const maxLocationLen = 120

// page is one parsed detail document shared by every rule.
type page struct {
	doc  *goquery.Document
	text string
}

// fieldRule recovers one raw field. An empty result means "absent".
type fieldRule struct {
	name  string
	apply func(p *page) string
	set   func(raw *models.RawDetail, v string)
}

var detailRules = []fieldRule{
	{"title", titleRule, func(r *models.RawDetail, v string) { r.Title = v }},
	{"price", priceRule, func(r *models.RawDetail, v string) { r.RawPrice = v }},
	{"location", locationRule, func(r *models.RawDetail, v string) { r.Location = v }},
	{"guests", countRule(guestsRegexp), func(r *models.RawDetail, v string) { r.Guests = v }},
	{"bedrooms", countRule(bedroomsRegexp), func(r *models.RawDetail, v string) { r.Bedrooms = v }},
	{"bathrooms", countRule(bathroomsRegexp), func(r *models.RawDetail, v string) { r.Bathrooms = v }},
}

// ParseDetail runs every rule against markup. Rules do not depend on each
// other, a miss only leaves that one field empty.
func ParseDetail(ref models.ExternalListingRef, markup string) *models.RawDetail {
	raw := &models.RawDetail{Ref: ref}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return raw
	}
	p := &page{doc: doc, text: visibleText(doc)}

	for _, rule := range detailRules {
		if v := strings.TrimSpace(rule.apply(p)); v != "" {
			rule.set(raw, v)
		}
	}
	return raw
}

func titleRule(p *page) string {
	if t := firstText(p.doc, titleSelectors); t != "" {
		return t
	}
	if v, ok := p.doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := stripSiteSuffix(v); t != "" {
			return t
		}
	}
	return stripSiteSuffix(p.doc.Find("title").First().Text())
}

func priceRule(p *page) string {
	return nightlyPriceRegexp.FindString(p.text)
}

func locationRule(p *page) string {
	for _, sel := range locationSelectors {
		var found string
		p.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := whereYoullBeRegexp.ReplaceAllString(collapseSpace(s.Text()), "")
			if t != "" && utf8.RuneCountInString(t) <= maxLocationLen {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func countRule(re *regexp.Regexp) func(p *page) string {
	return func(p *page) string {
		m := re.FindStringSubmatch(p.text)
		if len(m) < 2 {
			return ""
		}
		return m[1]
	}
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := collapseSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func stripSiteSuffix(s string) string {
	return collapseSpace(siteSuffixRegexp.ReplaceAllString(s, ""))
}

// visibleText joins every text node outside script/style blocks with single
// spaces, so that "$120" and "night" in sibling elements stay adjacent.
func visibleText(doc *goquery.Document) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return collapseSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
