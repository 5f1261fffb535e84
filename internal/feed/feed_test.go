package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Sample Podcast</title>
<item>
<title>Episode Three</title>
<pubDate>Wed, 03 Jan 2024 00:00:00 GMT</pubDate>
<enclosure url="https://example.com/ep3.mp3" type="audio/mpeg" length="100"/>
<description><![CDATA[<p>Notes three</p>]]></description>
</item>
<item>
<title>Episode Two</title>
<pubDate>Tue, 02 Jan 2024 00:00:00 GMT</pubDate>
<enclosure url="https://example.com/ep2.mp3" type="audio/mpeg" length="100"/>
<content:encoded xmlns:content="http://purl.org/rss/1.0/modules/content/"><![CDATA[<p>Content two</p>]]></content:encoded>
<description>Description two</description>
</item>
<item>
<title>Episode One Missing Enclosure</title>
<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
</item>
<item>
<title></title>
<pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate>
<enclosure url="https://example.com/notitle.mp3" type="audio/mpeg" length="100"/>
</item>
</channel>
</rss>`

func TestList_IndexMonotonicityAndOrder(t *testing.T) {
	records, err := ListFromBytes([]byte(sampleRSS), "https://example.com/feed.xml", 10)
	require.NoError(t, err)
	require.Len(t, records, 2) // two entries are malformed and skipped

	for i, r := range records {
		assert.Equal(t, i+1, r.Index)
		assert.Equal(t, "https://example.com/feed.xml", r.FeedURL)
	}
	assert.Equal(t, "Episode Three", records[0].Title)
	assert.Equal(t, "Episode Two", records[1].Title)
}

func TestList_RespectsLimit(t *testing.T) {
	records, err := ListFromBytes([]byte(sampleRSS), "https://example.com/feed.xml", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Index)
}

func TestList_ShowNotesPriority(t *testing.T) {
	records, err := ListFromBytes([]byte(sampleRSS), "https://example.com/feed.xml", 10)
	require.NoError(t, err)

	// Episode Two has both content:encoded and description; content wins.
	assert.True(t, strings.Contains(records[1].ShowNotes, "Content two"))

	// Episode Three only has description.
	assert.True(t, strings.Contains(records[0].ShowNotes, "Notes three"))
}

func TestList_MediaURLFromFirstEnclosure(t *testing.T) {
	records, err := ListFromBytes([]byte(sampleRSS), "https://example.com/feed.xml", 10)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ep3.mp3", records[0].MediaURL)
}

func TestListFromBytes_EmptyFeedIsUnparseable(t *testing.T) {
	emptyRSS := `<?xml version="1.0"?><rss version="2.0"><channel><title>x</title></channel></rss>`
	_, err := ListFromBytes([]byte(emptyRSS), "https://example.com/feed.xml", 10)
	assert.ErrorIs(t, err, ErrFeedUnparseable)
}

func TestListFromBytes_GarbageIsUnparseable(t *testing.T) {
	_, err := ListFromBytes([]byte("not xml at all"), "https://example.com/feed.xml", 10)
	assert.Error(t, err)
}
