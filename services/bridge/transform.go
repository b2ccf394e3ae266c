package bridge

import (
	"fmt"
	"time"

	"scrapebridge/lib/scrapers/twitter"
)

// Tweet is the normalized search result item the host process
// consumes.
type Tweet struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Author    string   `json:"author"`
	Username  string   `json:"username"`
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Likes     int      `json:"likes"`
	Retweets  int      `json:"retweets"`
	Replies   int      `json:"replies"`
	Views     int      `json:"views"`
	Images    []string `json:"images"`
	Platform  string   `json:"platform"`
}

type Trend struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	TweetVolume *int   `json:"tweet_volume"`
	Platform    string `json:"platform"`
}

// tweetFromRaw maps one raw tweet into its normalized form. The false
// return marks an unmappable item; the caller drops it and keeps the
// rest of the batch.
//
// When the created_at text doesn't parse, the current wall-clock time
// is substituted instead of dropping the item.
func tweetFromRaw(raw twitter.RawTweet) (Tweet, bool) {
	if raw.IDStr == "" || raw.User == nil {
		return Tweet{}, false
	}

	ts, err := time.Parse(time.RubyDate, raw.CreatedAt)
	if err != nil {
		ts = time.Now()
	}

	images := raw.MediaURLs()
	if images == nil {
		images = []string{}
	}

	return Tweet{
		ID:        raw.IDStr,
		Text:      raw.FullText,
		Author:    raw.User.Name,
		Username:  raw.User.ScreenName,
		Timestamp: ts.Format(time.RFC3339),
		URL:       fmt.Sprintf("https://twitter.com/%s/status/%s", raw.User.ScreenName, raw.IDStr),
		Likes:     raw.FavoriteCount,
		Retweets:  raw.RetweetCount,
		Replies:   raw.ReplyCount,
		Views:     raw.ViewCount,
		Images:    images,
		Platform:  "twitter",
	}, true
}

func trendFromRaw(raw twitter.RawTrend) (Trend, bool) {
	if raw.Name == "" {
		return Trend{}, false
	}
	return Trend{
		Name:        raw.Name,
		URL:         raw.URL,
		TweetVolume: raw.TweetVolume,
		Platform:    "twitter",
	}, true
}
