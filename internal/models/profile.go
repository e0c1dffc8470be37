package models

// Profile is the public view of a user together with their recent posts.
type Profile struct {
	User           *User  `json:"user"`
	Posts          []Post `json:"posts"`
	PostCount      int64  `json:"post_count"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

// SearchResults groups matching users and posts.
type SearchResults struct {
	Users []User `json:"users"`
	Posts []Post `json:"posts"`
}

// DashboardStats is the administrative overview.
type DashboardStats struct {
	TotalUsers    int64  `json:"total_users"`
	TotalPosts    int64  `json:"total_posts"`
	TotalLikes    int64  `json:"total_likes"`
	TotalComments int64  `json:"total_comments"`
	TopPosts      []Post `json:"top_posts"`
	RecentUsers   []User `json:"recent_users"`
	RecentPosts   []Post `json:"recent_posts"`
}

// ProfileUpdate lists the user fields a profile edit may change. Nil fields
// are left untouched; the username is never editable.
type ProfileUpdate struct {
	Email        *string
	ProfilePic   *string
	PasswordHash *string
}
