package scrape

import (
	"strings"
	"testing"
)

const yelpListingFixture = `
<li class="y-css-mhg9c5">
  <h3 class="y-css-hcgwj4">
    <a class="y-css-12f4fi2" href="/biz/swift-home-services-montreal?osq=Plumbers">Swift Home Services</a>
  </h3>
  <div class="y-css-dnttlc" role="img" aria-label="4.5 star rating"></div>
  <div data-traffic-crawl-id="SearchResultBizRating">4.5 (9 reviews)</div>
  <div data-testid="serp-ia-categories">
    <button class="y-css-4nc3wq">Plumbing</button>
    <button class="y-css-4nc3wq">Water Heater Installation</button>
    <button class="y-css-4nc3wq">Plumbing</button>
  </div>
  <div class="secondaryAttributes__09f24__F0z3u">
    <div class="container__09f24__Ommk4">
      <address>
        <p class="y-css-194gzdn"><span class="raw__09f24__T4Ezm">3823 Rue Saint-Denis, Montreal, QC H2W 2M4</span></p>
      </address>
    </div>
  </div>
  <div class="tag__09f24__wuJ8a" data-testid="tag">
    <span class="tagText__09f24__OoFU9"><span class="raw__09f24__T4Ezm">Free estimates</span></span>
  </div>
  <div class="tag__09f24__wuJ8a" data-testid="tag">
    <span class="tagText__09f24__OoFU9"><span class="raw__09f24__T4Ezm">Emergency services</span></span>
  </div>
  <img class="y-css-fex5b" src="//s3-media0.fl.yelpcdn.com/bphoto/abc/348s.jpg">
</li>`

func TestYelpBuildSearchURL(t *testing.T) {
	y := NewYelp()
	got := y.BuildSearchURL("Venues & Events", "Montreal")
	want := "https://www.yelp.ca/search?find_desc=Venues+%26+Events&find_loc=Montreal"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if again := y.BuildSearchURL("Venues & Events", "Montreal"); again != got {
		t.Fatalf("expected deterministic URL, got %q vs %q", got, again)
	}
}

func TestYelpBuildPageURL(t *testing.T) {
	y := NewYelp()
	search := y.BuildSearchURL("Plumbers", "Montreal")

	if got := y.BuildPageURL(search, 0); got != search {
		t.Fatalf("page 0 must return the search URL unchanged, got %q", got)
	}

	got := y.BuildPageURL(search, 2)
	if !strings.Contains(got, "start=20") {
		t.Fatalf("expected start offset 20, got %q", got)
	}
	if !strings.Contains(got, "find_desc=Plumbers") || !strings.Contains(got, "find_loc=Montreal") {
		t.Fatalf("pagination must preserve the query parameters, got %q", got)
	}

	// Overwrites, never appends, the pagination parameter.
	if again := y.BuildPageURL(got, 3); strings.Count(again, "start=") != 1 || !strings.Contains(again, "start=30") {
		t.Fatalf("expected single start=30 parameter, got %q", again)
	}
}

func TestYelpExtractListingRecord(t *testing.T) {
	doc := mustDoc(t, "<html><body><main id=\"main-content\"><ul>"+yelpListingFixture+"</ul></main></body></html>")
	y := NewYelp()

	containers := y.ListingContainers(doc)
	if containers == nil || containers.Length() != 1 {
		t.Fatalf("expected 1 listing container")
	}

	rec := y.ExtractListingRecord(containers.First())
	if !rec.Valid() {
		t.Fatalf("expected valid record, got %+v", rec)
	}
	if rec.Name != "Swift Home Services" {
		t.Fatalf("unexpected name: %q", rec.Name)
	}
	if rec.SourceURL != "https://www.yelp.ca/biz/swift-home-services-montreal" {
		t.Fatalf("expected canonical URL without query string, got %q", rec.SourceURL)
	}
	if rec.SourceID == nil || *rec.SourceID != "swift-home-services-montreal" {
		t.Fatalf("unexpected source id: %v", rec.SourceID)
	}
	if rec.Rating == nil || *rec.Rating != 4.5 {
		t.Fatalf("unexpected rating: %v", rec.Rating)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 9 {
		t.Fatalf("unexpected review count: %v", rec.ReviewCount)
	}
	if rec.Category == nil || *rec.Category != "Plumbing, Water Heater Installation" {
		t.Fatalf("unexpected category: %v", rec.Category)
	}
	if rec.Address == nil || *rec.Address != "3823 Rue Saint-Denis" {
		t.Fatalf("unexpected address: %v", rec.Address)
	}
	if rec.City == nil || *rec.City != "Montreal" {
		t.Fatalf("unexpected city: %v", rec.City)
	}
	if rec.State == nil || *rec.State != "QC" {
		t.Fatalf("unexpected state: %v", rec.State)
	}
	if rec.ZipCode == nil || *rec.ZipCode != "H2W 2M4" {
		t.Fatalf("unexpected zip: %v", rec.ZipCode)
	}
	if len(rec.Amenities) != 2 || rec.Amenities[0] != "Free estimates" {
		t.Fatalf("unexpected amenities: %v", rec.Amenities)
	}
	if len(rec.Images) != 1 || !strings.HasPrefix(rec.Images[0], "https://") {
		t.Fatalf("expected https image URL, got %v", rec.Images)
	}
	if rec.Country == nil || *rec.Country != "Canada" {
		t.Fatalf("unexpected country: %v", rec.Country)
	}
	// Absent fields stay nil without invalidating the rest.
	if rec.Phone != nil || rec.Email != nil || rec.Website != nil {
		t.Fatalf("expected absent contact fields to be nil")
	}
}

func TestYelpExtractListingRecordFallbackMarkup(t *testing.T) {
	// Template variant without the generated class names: the generic
	// rules further down each table still recover name and URL.
	doc := mustDoc(t, `
		<html><body><main>
		<ul><li>
		  <h3><a href="/biz/plain-plumbing">Plain Plumbing</a></h3>
		</li></ul>
		</main></body></html>`)
	y := NewYelp()

	containers := y.ListingContainers(doc)
	if containers == nil || containers.Length() != 1 {
		t.Fatalf("expected fallback container rule to match")
	}
	rec := y.ExtractListingRecord(containers.First())
	if !rec.Valid() {
		t.Fatalf("expected valid record, got %+v", rec)
	}
	if rec.Name != "Plain Plumbing" || rec.SourceURL != "https://www.yelp.ca/biz/plain-plumbing" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestYelpServingCity(t *testing.T) {
	doc := mustDoc(t, `
		<html><body><main id="main-content"><ul><li class="y-css-mhg9c5">
		  <h3 class="y-css-hcgwj4"><a class="y-css-12f4fi2" href="/biz/mobile-co">Mobile Co</a></h3>
		  <div class="secondaryAttributes__09f24__F0z3u">
		    <div class="y-css-74ugvt"><p class="y-css-194gzdn">Serving Laval and the Surrounding Area</p></div>
		  </div>
		</li></ul></main></body></html>`)
	y := NewYelp()

	rec := y.ExtractListingRecord(y.ListingContainers(doc).First())
	if rec.City == nil || *rec.City != "Laval" {
		t.Fatalf("expected city from service-area phrasing, got %v", rec.City)
	}
}

func TestYelpExtractListingURLs(t *testing.T) {
	doc := mustDoc(t, `
		<html><body><main id="main-content"><ul>
		<li class="y-css-mhg9c5"><h3 class="y-css-hcgwj4"><a href="/biz/one?osq=x">One</a></h3></li>
		<li class="y-css-mhg9c5"><h3 class="y-css-hcgwj4"><a href="/biz/one">One dup</a></h3></li>
		<li class="y-css-mhg9c5"><h3 class="y-css-hcgwj4"><a href="/biz/two">Two</a></h3></li>
		<li class="y-css-mhg9c5"><h3 class="y-css-hcgwj4"><a href="/events/not-a-biz">Skip</a></h3></li>
		</ul></main></body></html>`)
	y := NewYelp()

	urls := y.ExtractListingURLs(doc)
	want := []string{"https://www.yelp.ca/biz/one", "https://www.yelp.ca/biz/two"}
	if len(urls) != len(want) {
		t.Fatalf("expected %v, got %v", want, urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, urls)
		}
	}
}

func TestYelpHasNextPage(t *testing.T) {
	y := NewYelp()

	withNext := mustDoc(t, `<div class="pagination__09f24__D23mv"><a class="next-link" href="?start=10">Next</a></div>`)
	if !y.HasNextPage(withNext) {
		t.Fatalf("expected next page signal")
	}

	noPagination := mustDoc(t, `<div><p>results</p></div>`)
	if y.HasNextPage(noPagination) {
		t.Fatalf("expected no next page without pagination block")
	}

	noLink := mustDoc(t, `<div class="pagination__09f24__D23mv"><span>1 of 1</span></div>`)
	if y.HasNextPage(noLink) {
		t.Fatalf("expected no next page without a next-link")
	}

	disabled := mustDoc(t, `<div class="pagination__09f24__D23mv"><a class="next-link disabled">Next</a></div>`)
	if y.HasNextPage(disabled) {
		t.Fatalf("expected disabled next control to end the crawl")
	}
}

func TestYelpExtractDetailRecord(t *testing.T) {
	doc := mustDoc(t, `
		<html><body>
		  <h1>Acme Plumbing</h1>
		  <div data-testid="rating">4.8 (210 reviews)</div>
		  <address><p>3823 Rue Saint-Denis</p><p>Montreal</p><p>QC H2W 2M4</p></address>
		  <p class="phone-number">Phone: (514) 555-0199</p>
		  <a href="https://www.yelp.ca/biz/acme-plumbing">self</a>
		  <a href="https://acmeplumbing.example.com">website</a>
		  <a href="/search?find_desc=Plumbing">Plumbing</a>
		  <a href="/search?find_desc=Heating">Heating</a>
		</body></html>`)
	y := NewYelp()

	rec := y.ExtractDetailRecord(doc, "https://www.yelp.ca/biz/acme-plumbing?utm_source=x")
	if rec == nil {
		t.Fatalf("expected record")
	}
	if rec.Name != "Acme Plumbing" {
		t.Fatalf("unexpected name: %q", rec.Name)
	}
	if rec.SourceURL != "https://www.yelp.ca/biz/acme-plumbing" {
		t.Fatalf("expected canonical source URL, got %q", rec.SourceURL)
	}
	if rec.Rating == nil || *rec.Rating != 4.8 {
		t.Fatalf("unexpected rating: %v", rec.Rating)
	}
	if rec.ReviewCount == nil || *rec.ReviewCount != 210 {
		t.Fatalf("unexpected review count: %v", rec.ReviewCount)
	}
	if rec.Phone == nil || *rec.Phone != "+15145550199" {
		t.Fatalf("unexpected phone: %v", rec.Phone)
	}
	if rec.Website == nil || *rec.Website != "https://acmeplumbing.example.com" {
		t.Fatalf("unexpected website: %v", rec.Website)
	}
	if rec.Category == nil || *rec.Category != "Plumbing, Heating" {
		t.Fatalf("unexpected category: %v", rec.Category)
	}
	if rec.City == nil || *rec.City != "Montreal" {
		t.Fatalf("unexpected city: %v", rec.City)
	}
}
