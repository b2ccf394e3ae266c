package twitter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewerTweetID(t *testing.T) {
	testCases := []struct {
		a, b  string
		newer bool
	}{
		{"1050118621198921728", "999118621198921728", true},
		{"999118621198921728", "1050118621198921728", false},
		{"1050118621198921729", "1050118621198921728", true},
		{"1050118621198921728", "1050118621198921728", false},
	}
	for _, test := range testCases {
		require.Equal(t, test.newer, newerTweetID(test.a, test.b), "%s vs %s", test.a, test.b)
	}
}

func TestRawTweetDecoding(t *testing.T) {
	payload := `{
		"id_str": "1050118621198921728",
		"full_text": "hello",
		"created_at": "Wed Oct 10 20:19:24 +0000 2018",
		"favorite_count": 7,
		"retweet_count": 2,
		"reply_count": 1,
		"user_id_str": "6253282",
		"entities": {
			"media": [
				{"media_url_https": "https://pbs.twimg.com/media/a.jpg"},
				{"media_url_https": "https://pbs.twimg.com/media/b.jpg"}
			]
		}
	}`

	var tweet RawTweet
	require.NoError(t, json.Unmarshal([]byte(payload), &tweet))
	require.Equal(t, "1050118621198921728", tweet.IDStr)
	require.Equal(t, "6253282", tweet.UserIDStr)
	require.Equal(t, 7, tweet.FavoriteCount)
	require.Equal(t, []string{
		"https://pbs.twimg.com/media/a.jpg",
		"https://pbs.twimg.com/media/b.jpg",
	}, tweet.MediaURLs())

	// counts the payload omits stay at their zero defaults
	require.Equal(t, 0, tweet.ViewCount)
}

func TestRawTrendDecoding(t *testing.T) {
	payload := `{"name": "#golang", "url": "https://twitter.com/search?q=%23golang", "tweet_volume": null}`

	var trend RawTrend
	require.NoError(t, json.Unmarshal([]byte(payload), &trend))
	require.Equal(t, "#golang", trend.Name)
	require.Nil(t, trend.TweetVolume, "null volume is a normal case, not an error")
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Op: "search", Code: 88, Message: "Rate limit exceeded"}
	require.Equal(t, "twitter search: Rate limit exceeded (code 88)", err.Error())

	err = &Error{Op: "login", Message: "login denied by twitter"}
	require.Equal(t, "twitter login: login denied by twitter", err.Error())
}
