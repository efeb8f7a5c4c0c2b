package social

import "github.com/hanpama/socialgraph/internal/ref"

// Collection names.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

type User struct {
	ID         ref.ID   `bson:"_id,omitempty" json:"id"`
	Name       string   `bson:"name" json:"name"`
	Email      string   `bson:"email" json:"email"`
	Password   string   `bson:"password" json:"-"`
	Posts      []ref.ID `bson:"posts" json:"posts"`
	Comments   []ref.ID `bson:"comments" json:"comments"`
	LikedPosts []ref.ID `bson:"likedPosts" json:"likedPosts"`
}

type Post struct {
	ID       ref.ID   `bson:"_id,omitempty" json:"id"`
	Content  string   `bson:"content" json:"content"`
	Author   ref.ID   `bson:"author" json:"author"`
	Comments []ref.ID `bson:"comments" json:"comments"`
	Likes    []ref.ID `bson:"likes" json:"likes"`
}

type Comment struct {
	ID     ref.ID `bson:"_id,omitempty" json:"id"`
	Text   string `bson:"text" json:"text"`
	Author ref.ID `bson:"author" json:"author"`
	Post   ref.ID `bson:"post" json:"post"`
}
