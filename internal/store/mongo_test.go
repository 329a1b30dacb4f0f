package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

func TestFilterBSON(t *testing.T) {
	id := bson.NewObjectID()
	got := filterBSON(Where(Eq("owner", id), In("video", []any{id}), Exists("tweet")))

	assert.Equal(t, bson.D{
		{Key: "owner", Value: id},
		{Key: "video", Value: bson.M{"$in": bson.A{id}}},
		{Key: "tweet", Value: bson.M{"$exists": true, "$ne": nil}},
	}, got)
}

func TestUpdateBSONAlwaysSetsUpdatedAt(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := bson.NewObjectID()
	got := updateBSON(Update{
		Set:      map[string]any{"title": "t"},
		Unset:    []string{"refreshToken"},
		Inc:      map[string]int64{"views": 1},
		AddToSet: map[string]any{"watchHistory": v},
		Pull:     map[string]any{"videos": v},
	}, now)

	assert.Equal(t, bson.M{document.UpdatedAtField: now, "title": "t"}, got["$set"])
	assert.Equal(t, bson.M{"refreshToken": ""}, got["$unset"])
	assert.Equal(t, bson.M{"views": int64(1)}, got["$inc"])
	assert.Equal(t, bson.M{"watchHistory": v}, got["$addToSet"])
	assert.Equal(t, bson.M{"videos": v}, got["$pull"])
}

func TestFromBSONNormalizesDriverTypes(t *testing.T) {
	at := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	id := bson.NewObjectID()
	d := fromBSON(bson.M{
		"_id":       id,
		"createdAt": bson.NewDateTimeFromTime(at),
		"views":     int32(7),
		"videos":    bson.A{id},
		"owner":     bson.D{{Key: "username", Value: "a"}},
	})

	assert.Equal(t, id, d.ID())
	assert.True(t, at.Equal(d.Time("createdAt")))
	assert.Equal(t, int64(7), d["views"])
	assert.Equal(t, []bson.ObjectID{id}, d.ObjectIDs("videos"))
	assert.Equal(t, "a", d.String("owner.username"))
}
