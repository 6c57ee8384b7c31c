package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Example Market News</title>
	<item>
		<title>Acme Corp beats Q4 estimates</title>
		<link>https://example.com/acme-q4</link>
		<description>&lt;p&gt;Acme Corp reported   strong &lt;b&gt;Q4&lt;/b&gt; results.&lt;/p&gt;</description>
		<pubDate>Mon, 10 Aug 2026 12:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Missing link entry</title>
		<pubDate>Mon, 10 Aug 2026 12:00:00 GMT</pubDate>
	</item>
	<item>
		<title>Bad date entry</title>
		<link>https://example.com/bad-date</link>
		<pubDate>not a date</pubDate>
	</item>
</channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Example Atom Feed</title>
	<entry>
		<title>Fed holds rates steady</title>
		<link rel="self" href="https://example.com/self"/>
		<link rel="alternate" href="https://example.com/fed-rates"/>
		<updated>2026-08-10T09:30:00Z</updated>
	</entry>
	<entry>
		<title></title>
		<link rel="alternate" href="https://example.com/untitled"/>
		<updated>2026-08-10T09:30:00Z</updated>
	</entry>
</feed>`

func TestNormalizeRSS(t *testing.T) {
	items := Normalize(rssDoc)

	assert.Equal(t, 1, len(items))
	assert.Equal(t, "Acme Corp beats Q4 estimates", items[0].Title)
	assert.Equal(t, "https://example.com/acme-q4", items[0].Link)
	assert.Equal(t, "Acme Corp reported strong Q4 results.", items[0].Description)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())
	assert.Equal(t, time.August, items[0].PublishedAt.Month())
}

func TestNormalizeAtomPrefersAlternateLink(t *testing.T) {
	items := Normalize(atomDoc)

	assert.Equal(t, 1, len(items))
	assert.Equal(t, "Fed holds rates steady", items[0].Title)
	assert.Equal(t, "https://example.com/fed-rates", items[0].Link)
	assert.NotEqual(t, time.Time{}, items[0].PublishedAt)
}

func TestNormalizeGarbageYieldsEmpty(t *testing.T) {
	assert.Equal(t, 0, len(Normalize("this is not xml at all")))
	assert.Equal(t, 0, len(Normalize("<html><body>an html page</body></html>")))
	assert.Equal(t, 0, len(Normalize("")))
}

func TestNormalizeManyItems(t *testing.T) {
	doc := `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`
	for i := 0; i < 5; i++ {
		doc += fmt.Sprintf(`<item><title>Item %d</title><link>https://example.com/%d</link><pubDate>Mon, 10 Aug 2026 12:0%d:00 GMT</pubDate></item>`, i, i, i)
	}
	doc += `</channel></rss>`

	items := Normalize(doc)
	assert.Equal(t, 5, len(items))
}
