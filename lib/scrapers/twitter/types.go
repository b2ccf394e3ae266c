package twitter

import "fmt"

// Error is a capability-classified failure: twitter itself rejected
// the call (bad credentials, rate limit, suspended account). Callers
// use errors.As to tell these apart from transport or decode failures.
type Error struct {
	Op      string
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twitter %s: %s (code %d)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("twitter %s: %s", e.Op, e.Message)
}

// RawUser is the author record attached to a tweet.
type RawUser struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

type RawMedia struct {
	MediaURLHttps string `json:"media_url_https"`
}

type rawEntities struct {
	Media []RawMedia `json:"media"`
}

// RawTweet mirrors the legacy tweet payload of the adaptive search
// endpoint. CreatedAt stays textual ("Mon Jan 02 15:04:05 -0700 2006");
// normalization happens at the bridge layer.
type RawTweet struct {
	IDStr         string      `json:"id_str"`
	FullText      string      `json:"full_text"`
	CreatedAt     string      `json:"created_at"`
	FavoriteCount int         `json:"favorite_count"`
	RetweetCount  int         `json:"retweet_count"`
	ReplyCount    int         `json:"reply_count"`
	ViewCount     int         `json:"view_count"`
	UserIDStr     string      `json:"user_id_str"`
	Entities      rawEntities `json:"entities"`

	// joined from the users table of the search response; nil when
	// the payload referenced an author that wasn't included
	User *RawUser `json:"-"`
}

func (t RawTweet) MediaURLs() []string {
	var urls []string
	for _, m := range t.Entities.Media {
		if m.MediaURLHttps != "" {
			urls = append(urls, m.MediaURLHttps)
		}
	}
	return urls
}

// RawTrend is one entry of the trends/place response. TweetVolume is
// frequently null for low-volume trends.
type RawTrend struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	TweetVolume *int   `json:"tweet_volume"`
}
