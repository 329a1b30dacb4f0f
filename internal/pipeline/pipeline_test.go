package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/store"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Memory
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), store: store.NewMemory()}
}

func (f *fixture) insert(c store.Collection, d document.Document) document.Document {
	f.t.Helper()
	out, err := f.store.Insert(f.ctx, c, d)
	require.NoError(f.t, err)
	return out
}

func (f *fixture) user(name string) document.Document {
	return f.insert(store.Users, document.Document{
		"username":     name,
		"avatar":       name + ".png",
		"password":     "hash",
		"refreshToken": "token",
	})
}

func (f *fixture) video(owner bson.ObjectID, title string, minute int, published bool) document.Document {
	return f.insert(store.Videos, document.Document{
		"title":       title,
		"owner":       owner,
		"views":       int64(minute),
		"duration":    float64(minute) * 1.5,
		"isPublished": published,
		"createdAt":   base.Add(time.Duration(minute) * time.Minute),
	})
}

func titles(docs []document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.String("title")
	}
	return out
}

func videoListing() *Pipeline {
	return New("test_videos", store.Videos).
		Match(store.Eq("isPublished", true)).
		Join(Relation{
			From: store.Users, LocalField: "owner", ForeignField: document.IDField, As: "owner",
			Single: true, Fields: []string{"username", "avatar"},
		}).
		Join(Reverse(store.Likes, "video", "likes")).
		Derive(Count("likesCount", "likes"), RequesterIn("isLiked", "likes", "likedBy"))
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		want        PageRequest
		wantErr     bool
	}{
		{"defaults", "", "", PageRequest{Page: 1, Limit: 10}, false},
		{"explicit", "3", "25", PageRequest{Page: 3, Limit: 25}, false},
		{"trimmed", " 2 ", "5", PageRequest{Page: 2, Limit: 5}, false},
		{"max limit", "1", "100", PageRequest{Page: 1, Limit: 100}, false},
		{"non numeric page", "abc", "", PageRequest{}, true},
		{"zero page", "0", "", PageRequest{}, true},
		{"negative limit", "", "-1", PageRequest{}, true},
		{"limit too large", "", "101", PageRequest{}, true},
		{"float limit", "", "2.5", PageRequest{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageRequest(tt.page, tt.limit)
			if tt.wantErr {
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		sortBy, sortType string
		want             Sort
		wantErr          bool
	}{
		{"", "", Sort{Key: "createdAt", Desc: true}, false},
		{"views", "asc", Sort{Key: "views"}, false},
		{"duration", "DESC", Sort{Key: "duration", Desc: true}, false},
		{"title", "asc", Sort{}, true},
		{"views", "sideways", Sort{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy+"/"+tt.sortType, func(t *testing.T) {
			got, err := ParseSort(tt.sortBy, tt.sortType)
			if tt.wantErr {
				assert.True(t, apperr.Is(err, apperr.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageTwoOfTwelve(t *testing.T) {
	f := newFixture(t)
	owner := f.user("alice")
	for i := 1; i <= 12; i++ {
		f.video(owner.ID(), fmt.Sprintf("v%02d", i), i, true)
	}

	page, err := NewEngine(f.store).Paginate(f.ctx, videoListing(), bson.ObjectID{}, PageRequest{Page: 2, Limit: 5})
	require.NoError(t, err)

	// newest first: v12..v08 on page 1, v07..v03 on page 2
	assert.Equal(t, []string{"v07", "v06", "v05", "v04", "v03"}, titles(page.Items))
	assert.Equal(t, 12, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
}

func TestPaginationCoversEveryItemOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.user("alice")
	for i := 1; i <= 13; i++ {
		f.video(owner.ID(), fmt.Sprintf("v%02d", i), i%4, true)
	}
	e := NewEngine(f.store)

	for limit := 1; limit <= 14; limit++ {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			seen := map[bson.ObjectID]bool{}
			first, err := e.Paginate(f.ctx, videoListing(), bson.ObjectID{}, PageRequest{Page: 1, Limit: limit})
			require.NoError(t, err)
			assert.Equal(t, (first.TotalItems+limit-1)/limit, first.TotalPages)

			sum := 0
			for p := 1; p <= first.TotalPages; p++ {
				page, err := e.Paginate(f.ctx, videoListing(), bson.ObjectID{}, PageRequest{Page: p, Limit: limit})
				require.NoError(t, err)
				sum += len(page.Items)
				for _, it := range page.Items {
					assert.False(t, seen[it.ID()], "item repeated across pages")
					seen[it.ID()] = true
				}
			}
			assert.Equal(t, first.TotalItems, sum)
		})
	}
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	f := newFixture(t)
	page, err := NewEngine(f.store).Paginate(f.ctx, videoListing(), bson.ObjectID{}, PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalItems)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNextPage)
}

func TestListingHonoursScopingMatch(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	f.video(a.ID(), "V1", 1, false)
	f.video(a.ID(), "V2", 2, true)

	docs, err := NewEngine(f.store).Run(f.ctx, videoListing(), bson.ObjectID{})
	require.NoError(t, err)
	assert.Equal(t, []string{"V2"}, titles(docs))
}

func TestDerivedFieldsRelativeToRequester(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	v := f.video(a.ID(), "V", 1, true)
	f.insert(store.Likes, document.Document{"video": v.ID(), "likedBy": b.ID()})
	e := NewEngine(f.store)

	tests := []struct {
		name      string
		requester bson.ObjectID
		want      bool
	}{
		{"anonymous", bson.ObjectID{}, false},
		{"liker", b.ID(), true},
		{"someone else", a.ID(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.One(f.ctx, videoListing(), tt.requester)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d["isLiked"])
			assert.Equal(t, int64(1), d["likesCount"])
		})
	}
}

func TestSingleJoinIsLeftOuter(t *testing.T) {
	f := newFixture(t)
	f.video(bson.NewObjectID(), "orphan", 1, true)

	d, err := NewEngine(f.store).One(f.ctx, videoListing(), bson.ObjectID{})
	require.NoError(t, err)
	assert.Nil(t, d["owner"])
	assert.Equal(t, []document.Document{}, d["likes"])
	assert.Equal(t, int64(0), d["likesCount"])
}

func TestRequiredJoinDropsDanglingRows(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	live := f.video(a.ID(), "live", 1, true)
	hidden := f.video(a.ID(), "hidden", 2, false)
	f.insert(store.Likes, document.Document{"video": live.ID(), "likedBy": a.ID()})
	f.insert(store.Likes, document.Document{"video": hidden.ID(), "likedBy": a.ID()})
	f.insert(store.Likes, document.Document{"video": bson.NewObjectID(), "likedBy": a.ID()})

	p := New("liked", store.Likes).
		Match(store.Eq("likedBy", a.ID()), store.Exists("video")).
		Join(Relation{
			From: store.Videos, LocalField: "video", ForeignField: document.IDField, As: "likedVideo",
			Single: true, Required: true, Match: store.Where(store.Eq("isPublished", true)),
		})

	page, err := NewEngine(f.store).Paginate(f.ctx, p, a.ID(), PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.TotalItems)
	assert.Equal(t, "live", page.Items[0].String("likedVideo.title"))
}

func TestArrayLocalFieldFollowsArrayOrder(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	v1 := f.video(a.ID(), "first", 1, true)
	v2 := f.video(a.ID(), "second", 2, true)
	f.insert(store.Playlists, document.Document{"name": "mix", "owner": a.ID(), "videos": []any{v2.ID(), v1.ID()}})

	p := New("playlist", store.Playlists).
		Join(Relation{From: store.Videos, LocalField: "videos", ForeignField: document.IDField, As: "videos"}).
		Derive(Count("totalVideos", "videos"), Sum("totalViews", "videos", "views"))

	d, err := NewEngine(f.store).One(f.ctx, p, bson.ObjectID{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, titles(d.Docs("videos")))
	assert.Equal(t, int64(2), d["totalVideos"])
	assert.Equal(t, int64(3), d["totalViews"])
}

func TestNestedRelationsAndValueIn(t *testing.T) {
	f := newFixture(t)
	a, c := f.user("alice"), f.user("carol")
	f.insert(store.Subscriptions, document.Document{"subscriber": a.ID(), "channel": c.ID()})

	subscribers := func() *Pipeline {
		return New("subscribers", store.Subscriptions).
			Match(store.Eq("channel", c.ID())).
			Join(Relation{
				From: store.Users, LocalField: "subscriber", ForeignField: document.IDField, As: "subscriber",
				Single: true,
				Nested: []Relation{Reverse(store.Subscriptions, "channel", "subscribedToSubscriber")},
				Derive: []Derivation{
					Count("subscribersCount", "subscribedToSubscriber"),
					ValueIn("subscribedToSubscriber", "subscribedToSubscriber", "subscriber", c.ID()),
				},
				Fields: []string{"_id", "username", "subscribedToSubscriber", "subscribersCount"},
			})
	}
	e := NewEngine(f.store)

	d, err := e.One(f.ctx, subscribers(), bson.ObjectID{})
	require.NoError(t, err)
	assert.Equal(t, "alice", d.String("subscriber.username"))
	assert.Equal(t, false, d["subscriber"].(document.Document)["subscribedToSubscriber"])

	f.insert(store.Subscriptions, document.Document{"subscriber": c.ID(), "channel": a.ID()})
	d, err = e.One(f.ctx, subscribers(), bson.ObjectID{})
	require.NoError(t, err)
	sub := d["subscriber"].(document.Document)
	assert.Equal(t, true, sub["subscribedToSubscriber"])
	assert.Equal(t, int64(1), sub["subscribersCount"])
}

// countingStore records Find calls.
type countingStore struct {
	*store.Memory
	finds atomic.Int64
}

func (s *countingStore) Find(ctx context.Context, c store.Collection, f store.Filter) ([]document.Document, error) {
	s.finds.Add(1)
	return s.Memory.Find(ctx, c, f)
}

func TestDepthThreeRelationRejectedBeforeStoreCalls(t *testing.T) {
	cs := &countingStore{Memory: store.NewMemory()}
	deep := Relation{From: store.Videos, LocalField: "_id", ForeignField: "owner", As: "c"}
	mid := Relation{From: store.Users, LocalField: "_id", ForeignField: "_id", As: "b", Nested: []Relation{deep}}
	top := Relation{From: store.Users, LocalField: "owner", ForeignField: "_id", As: "a", Nested: []Relation{mid}}

	_, err := NewEngine(cs).Run(context.Background(), New("deep", store.Videos).Join(top), bson.ObjectID{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, cs.finds.Load())
}

func TestJoinsAreBatched(t *testing.T) {
	f := newFixture(t)
	cs := &countingStore{Memory: f.store}
	a := f.user("alice")
	for i := 0; i < 5; i++ {
		f.video(a.ID(), fmt.Sprintf("v%d", i), i, true)
	}

	_, err := NewEngine(cs).Run(f.ctx, videoListing(), bson.ObjectID{})
	require.NoError(t, err)
	// source + owner + likes
	assert.Equal(t, int64(3), cs.finds.Load())
}

func TestSortIsTotalAndStable(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	for i := 0; i < 6; i++ {
		f.insert(store.Videos, document.Document{
			"title": fmt.Sprintf("v%d", i), "owner": a.ID(), "views": int64(7), "isPublished": true,
		})
	}
	e := NewEngine(f.store)
	s, err := ParseSort("views", "desc")
	require.NoError(t, err)

	first, err := e.Run(f.ctx, videoListing().SortBy(s), bson.ObjectID{})
	require.NoError(t, err)
	second, err := e.Run(f.ctx, videoListing().SortBy(s), bson.ObjectID{})
	require.NoError(t, err)

	assert.Equal(t, titles(first), titles(second))
	for i := 1; i < len(first); i++ {
		assert.Equal(t, -1, document.Compare(first[i-1].ID(), first[i].ID()), "ties ordered by identifier")
	}
}

func TestWindowBeforeJoinMatchesFullEvaluation(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	for i := 0; i < 9; i++ {
		v := f.video(a.ID(), fmt.Sprintf("v%d", i), i%3, true)
		if i%2 == 0 {
			f.insert(store.Likes, document.Document{"video": v.ID(), "likedBy": b.ID()})
		}
	}
	e := NewEngine(f.store)
	s := Sort{Key: "views", Desc: false}
	req := PageRequest{Page: 2, Limit: 4}

	p := videoListing().SortBy(s)
	require.True(t, p.windowFirst())
	page, err := e.Paginate(f.ctx, p, b.ID(), req)
	require.NoError(t, err)

	all, err := e.Run(f.ctx, videoListing().SortBy(s), b.ID())
	require.NoError(t, err)
	assert.Equal(t, window(all, req), page.Items)
	assert.Equal(t, len(all), page.TotalItems)
}

func TestWindowFirstDisabledWhenSortingByDerivedField(t *testing.T) {
	p := videoListing().SortBy(Sort{Key: "likesCount", Desc: true})
	assert.False(t, p.windowFirst())
}

func TestSearchMatchesAnyTermInAnyField(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	f.insert(store.Videos, document.Document{"title": "Go Concurrency", "description": "", "owner": a.ID(), "isPublished": true})
	f.insert(store.Videos, document.Document{"title": "Cooking", "description": "pasta in go time", "owner": a.ID(), "isPublished": true})
	f.insert(store.Videos, document.Document{"title": "Gardening", "description": "roses", "owner": a.ID(), "isPublished": true})

	docs, err := NewEngine(f.store).Run(f.ctx, videoListing().Search("  GO  ", "title", "description"), bson.ObjectID{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Go Concurrency", "Cooking"}, titles(docs))
}

func TestProjectionNeverLeaksCredentials(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	f.video(a.ID(), "V", 1, true)

	p := New("leak", store.Videos).
		Join(Lookup(store.Users, "owner", "owner")).
		Project("title", "owner", "owner.password")

	d, err := NewEngine(f.store).One(f.ctx, p, bson.ObjectID{})
	require.NoError(t, err)
	owners := d.Docs("owner")
	require.Len(t, owners, 1)
	assert.Equal(t, "alice", owners[0].String("username"))
	assert.NotContains(t, owners[0], "password")
	assert.NotContains(t, owners[0], "refreshToken")
}
