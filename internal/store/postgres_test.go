package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

func TestBuildWhere(t *testing.T) {
	id := bson.NewObjectID()

	where, args, err := buildWhere(Where(Eq("owner", id), In("title", []any{"a", "b"}), Exists("video")))
	require.NoError(t, err)
	assert.Equal(t,
		" WHERE (doc->'owner' = $1::jsonb OR doc->'owner' @> jsonb_build_array($1::jsonb))"+
			" AND EXISTS (SELECT 1 FROM jsonb_array_elements($2::jsonb) e WHERE doc->'title' = e OR doc->'title' @> jsonb_build_array(e))"+
			" AND (doc->'video' IS NOT NULL AND doc->'video' <> 'null'::jsonb)",
		where)
	assert.Equal(t, []any{`"` + id.Hex() + `"`, `["a","b"]`}, args)

	// Array-valued fields match on any element.
	where, args, err = buildWhere(Where(In("videos", []any{id})))
	require.NoError(t, err)
	assert.Equal(t,
		" WHERE EXISTS (SELECT 1 FROM jsonb_array_elements($1::jsonb) e"+
			" WHERE doc->'videos' = e OR doc->'videos' @> jsonb_build_array(e))",
		where)
	assert.Equal(t, []any{`["` + id.Hex() + `"]`}, args)

	where, args, err = buildWhere(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestJSONPathEscapesQuotes(t *testing.T) {
	assert.Equal(t, "doc->'owner'->'user''s'", jsonPath("owner.user's"))
}

func TestJSONRoundTripRestoresTypes(t *testing.T) {
	created := time.Date(2024, 3, 2, 1, 0, 0, 500, time.UTC)
	owner, v1 := bson.NewObjectID(), bson.NewObjectID()
	in := document.Document{
		document.IDField:        bson.NewObjectID(),
		document.CreatedAtField: created,
		"owner":                 owner,
		"videos":                []any{v1},
		"name":                  "mix",
	}

	raw, err := encodeJSON(in)
	require.NoError(t, err)
	out, err := decodeJSON(Playlists, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, in.ID(), out.ID())
	assert.Equal(t, owner, out.ObjectID("owner"))
	assert.Equal(t, []bson.ObjectID{v1}, out.ObjectIDs("videos"))
	assert.True(t, created.Equal(out.Time(document.CreatedAtField)))
	assert.Equal(t, "mix", out.String("name"))
}

func TestTableNameRejectsUnknownCollection(t *testing.T) {
	_, err := tableName(Collection("users; DROP TABLE users"))
	assert.Error(t, err)
}
