package domain

import "time"

// RelationKind names one of the two edge sets.
type RelationKind string

const (
	// RelationFavorite links a user (subject) to an article (object).
	RelationFavorite RelationKind = "favorite"
	// RelationFollow links a follower (subject) to a followed user (object).
	RelationFollow RelationKind = "follow"
)

// FavoriteModel is one favorite edge.
type FavoriteModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uidx_favorite_pair,priority:1"`
	ArticleID string    `gorm:"column:article_id;type:varchar(36);not null;uniqueIndex:uidx_favorite_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (FavoriteModel) TableName() string { return "favorites" }

// FollowModel is one follow edge.
type FollowModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:1"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:2;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string { return "follows" }
