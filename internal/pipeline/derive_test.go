package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

func TestAttachDefaultsOnMissingData(t *testing.T) {
	d := document.Document{"likes": "not an array"}
	Attach(d, bson.NewObjectID(), []Derivation{
		Count("likesCount", "likes"),
		Count("commentsCount", "comments"),
		Sum("totalViews", "videos", "views"),
		RequesterIn("isLiked", "likes", "likedBy"),
		Last("latestVideo", "videos"),
	})

	assert.Equal(t, int64(0), d["likesCount"])
	assert.Equal(t, int64(0), d["commentsCount"])
	assert.Equal(t, int64(0), d["totalViews"])
	assert.Equal(t, false, d["isLiked"])
	assert.Nil(t, d["latestVideo"])
}

func TestRequesterInUsesIdentifierEquality(t *testing.T) {
	me := bson.NewObjectID()
	d := document.Document{
		"subscribers": []document.Document{
			{"subscriber": me.Hex()},
			{"subscriber": document.Document{"_id": me}},
		},
	}
	Attach(d, me, []Derivation{RequesterIn("isSubscribed", "subscribers", "subscriber")})
	assert.Equal(t, false, d["isSubscribed"], "hex text and nested objects are not identifiers")

	d["subscribers"] = []document.Document{{"subscriber": me}}
	Attach(d, me, []Derivation{RequesterIn("isSubscribed", "subscribers", "subscriber")})
	assert.Equal(t, true, d["isSubscribed"])

	Attach(d, bson.ObjectID{}, []Derivation{RequesterIn("isSubscribed", "subscribers", "subscriber")})
	assert.Equal(t, false, d["isSubscribed"], "anonymous is never subscribed")
}

func TestSumKeepsFractions(t *testing.T) {
	d := document.Document{"videos": []any{
		document.Document{"duration": 1.5},
		map[string]any{"duration": 2},
	}}
	Attach(d, bson.ObjectID{}, []Derivation{Sum("totalDuration", "videos", "duration")})
	assert.Equal(t, 3.5, d["totalDuration"])
}

func TestLastPicksFinalElement(t *testing.T) {
	d := document.Document{"videos": []document.Document{{"title": "old"}, {"title": "new"}}}
	Attach(d, bson.ObjectID{}, []Derivation{Last("latestVideo", "videos")})
	assert.Equal(t, "new", d.String("latestVideo.title"))
}

func TestProjectNestedAllowList(t *testing.T) {
	d := document.Document{
		"title":    "t",
		"internal": 1,
		"owner": document.Document{
			"username": "alice",
			"email":    "a@example.com",
			"password": "hash",
			"avatar":   document.Document{"url": "a.png", "key": "secret"},
		},
		"comments": []document.Document{
			{"content": "hi", "owner": "x", "refreshToken": "t"},
		},
	}

	got := Project(d, []string{"title", "owner.username", "owner.avatar.url", "comments.content", "owner.password"})

	assert.Equal(t, document.Document{
		"title": "t",
		"owner": document.Document{
			"username": "alice",
			"avatar":   document.Document{"url": "a.png"},
		},
		"comments": []document.Document{{"content": "hi"}},
	}, got)
}

func TestProjectEmptyListStripsCredentialsEverywhere(t *testing.T) {
	d := document.Document{
		"username": "a",
		"password": "x",
		"nested":   []any{map[string]any{"refreshToken": "y", "ok": true}},
	}
	got := Project(d, nil)
	assert.NotContains(t, got, "password")
	assert.Equal(t, []any{document.Document{"ok": true}}, got["nested"])
	assert.Equal(t, "x", d["password"], "source is not modified")
}
