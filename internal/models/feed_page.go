package models

// FeedPage is one window of a feed.
type FeedPage struct {
	Filter   string `json:"filter"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasMore  bool   `json:"has_more"`
	Posts    []Post `json:"posts"`
}
