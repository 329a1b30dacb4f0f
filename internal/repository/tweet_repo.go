package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type TweetRepo struct {
	collection
}

func NewTweetRepo(s store.Store, engine *pipeline.Engine) *TweetRepo {
	return &TweetRepo{collection: newCollection(s, engine, store.Tweets)}
}

func (r *TweetRepo) Insert(ctx context.Context, t model.Tweet) (model.Tweet, error) {
	d, err := r.insert(ctx, t.Document())
	if err != nil {
		return model.Tweet{}, err
	}
	return model.TweetFromDocument(d), nil
}

func (r *TweetRepo) FindByID(ctx context.Context, id bson.ObjectID) (model.Tweet, error) {
	d, err := r.byID(ctx, id)
	if err != nil {
		return model.Tweet{}, err
	}
	return model.TweetFromDocument(d), nil
}

func (r *TweetRepo) UpdateContent(ctx context.Context, id bson.ObjectID, content string) (model.Tweet, error) {
	d, err := r.update(ctx, id, store.Update{Set: map[string]any{"content": content}})
	if err != nil {
		return model.Tweet{}, err
	}
	return model.TweetFromDocument(d), nil
}

// ListForUser pages through the tweets of owner with like totals relative
// to requester.
func (r *TweetRepo) ListForUser(ctx context.Context, owner, requester bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("user_tweets", store.Tweets).
		Match(store.Eq("owner", owner)).
		Join(
			pipeline.Relation{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "ownerDetails",
				Single:       true,
				Fields:       []string{document.IDField, "username", "avatar"},
			},
			pipeline.Relation{
				From:         store.Likes,
				LocalField:   document.IDField,
				ForeignField: "tweet",
				As:           "likeDetails",
				Fields:       []string{"likedBy"},
			},
		).
		Derive(
			pipeline.Count("likesCount", "likeDetails"),
			pipeline.RequesterIn("isLiked", "likeDetails", "likedBy"),
		).
		Project(document.IDField, "content", "images", "ownerDetails", "likesCount", document.CreatedAtField, "isLiked")
	return r.engine.Paginate(ctx, p, requester, req)
}
