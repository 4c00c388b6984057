package pubsub

import "fmt"

// Relation channels follow "relation:<kind>:<objectID>".
const (
	ChannelFavorite = "relation:favorite:%s"
	ChannelFollow   = "relation:follow:%s"

	PatternFavorite = "relation:favorite:*"
	PatternFollow   = "relation:follow:*"
)

// Relation event types.
const (
	EventRelationAdded   = "relation_added"
	EventRelationRemoved = "relation_removed"
)

// FavoriteChannel returns the channel for favorite changes on an article.
func FavoriteChannel(articleID string) string {
	return fmt.Sprintf(ChannelFavorite, articleID)
}

// FollowChannel returns the channel for follow changes targeting a user.
func FollowChannel(userID string) string {
	return fmt.Sprintf(ChannelFollow, userID)
}

// RelationPayload is carried by relation events.
type RelationPayload struct {
	Relation  string `json:"relation"` // "favorite" or "follow"
	SubjectID string `json:"subject_id"`
	ObjectID  string `json:"object_id"`
}
