package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestGetAndSetNestedPaths(t *testing.T) {
	d := Document{"owner": Document{"username": "alice"}}

	v, ok := d.Get("owner.username")
	require.True(t, ok)
	assert.Equal(t, "alice", v)

	_, ok = d.Get("owner.avatar")
	assert.False(t, ok)

	d.Set("owner.avatar", "a.png")
	d.Set("stats.views", 3)
	assert.Equal(t, "a.png", d.String("owner.avatar"))
	assert.Equal(t, int64(3), d.Int64("stats.views"))
}

func TestGetThroughUntypedMaps(t *testing.T) {
	d := Document{"owner": map[string]any{"username": "bob"}}
	assert.Equal(t, "bob", d.String("owner.username"))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Document{
		"owner": Document{"username": "alice"},
		"likes": []Document{{"likedBy": bson.NewObjectID()}},
	}
	cp := orig.Clone()
	cp.Set("owner.username", "mallory")
	cp.Docs("likes")[0]["likedBy"] = nil

	assert.Equal(t, "alice", orig.String("owner.username"))
	assert.NotNil(t, orig.Docs("likes")[0]["likedBy"])
}

func TestCompareIsTotalAcrossTypes(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	a, b := bson.NewObjectID(), bson.NewObjectID()

	tests := []struct {
		name string
		x, y any
		want int
	}{
		{"nil before number", nil, 1, -1},
		{"int vs float", int64(2), 2.0, 0},
		{"numbers", 1, 2.5, -1},
		{"number before string", 10, "a", -1},
		{"strings", "b", "a", 1},
		{"object ids by bytes", a, b, -1},
		{"false before true", false, true, -1},
		{"times", late, early, 1},
		{"string before id", "zzz", a, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.x, tt.y))
			assert.Equal(t, -tt.want, Compare(tt.y, tt.x))
		})
	}
}

func TestEqualUsesIdentifierSemantics(t *testing.T) {
	id := bson.NewObjectID()
	assert.True(t, Equal(id, id))
	assert.False(t, Equal(id, id.Hex()), "identifier must not equal its hex text")
	assert.True(t, Equal(int32(4), 4.0))
	assert.False(t, Equal(nil, ""))
}

func TestValuesFlattensArrays(t *testing.T) {
	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}
	assert.Len(t, Values(ids), 2)
	assert.Len(t, Values(ids[0]), 1)
	assert.Empty(t, Values(nil))
}

func TestNormalizeConvertsMaps(t *testing.T) {
	v := Normalize(map[string]any{
		"owner": map[string]any{"username": "x"},
		"tags":  []any{map[string]any{"k": 1}},
	})
	d, ok := v.(Document)
	require.True(t, ok)
	_, ok = d["owner"].(Document)
	assert.True(t, ok)
	assert.Len(t, d.Docs("tags"), 1)
}
