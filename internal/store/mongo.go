package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Mongo stores each collection in a MongoDB collection of the same name.
type Mongo struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique indexes backing UniqueKeys. Keys over
// optional fields get a partial filter so documents without the field are
// not constrained.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	for c, keys := range UniqueKeys {
		models := make([]mongo.IndexModel, 0, len(keys))
		for _, k := range keys {
			fields := bson.D{}
			partial := bson.M{}
			for _, f := range k.Fields {
				fields = append(fields, bson.E{Key: f, Value: 1})
				partial[f] = bson.M{"$exists": true}
			}
			models = append(models, mongo.IndexModel{
				Keys: fields,
				Options: options.Index().
					SetName(k.Name).
					SetUnique(true).
					SetPartialFilterExpression(partial),
			})
		}
		if _, err := m.db.Collection(string(c)).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", c, err)
		}
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error) {
	doc := prepareInsert(d, m.now())
	if _, err := m.db.Collection(string(c)).InsertOne(ctx, toBSON(doc)); err != nil {
		return nil, mapMongoError(err)
	}
	return doc, nil
}

func (m *Mongo) Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: document.IDField, Value: 1}})
	cur, err := m.db.Collection(string(c)).Find(ctx, filterBSON(f), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]document.Document, 0)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, fromBSON(raw))
	}
	return out, cur.Err()
}

func (m *Mongo) FindOne(ctx context.Context, c Collection, f Filter) (document.Document, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: document.IDField, Value: 1}})
	var raw bson.M
	err := m.db.Collection(string(c)).FindOne(ctx, filterBSON(f), opts).Decode(&raw)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return fromBSON(raw), nil
}

func (m *Mongo) Update(ctx context.Context, c Collection, f Filter, u Update) (document.Document, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: document.IDField, Value: 1}})

	var raw bson.M
	err := m.db.Collection(string(c)).
		FindOneAndUpdate(ctx, filterBSON(f), updateBSON(u, m.now()), opts).
		Decode(&raw)
	if err != nil {
		return nil, mapMongoError(err)
	}
	return fromBSON(raw), nil
}

func (m *Mongo) Delete(ctx context.Context, c Collection, f Filter) (int64, error) {
	res, err := m.db.Collection(string(c)).DeleteMany(ctx, filterBSON(f))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

func mapMongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func filterBSON(f Filter) bson.D {
	out := bson.D{}
	for _, c := range f {
		switch c.Op {
		case OpEq:
			out = append(out, bson.E{Key: c.Field, Value: toBSON(c.Value)})
		case OpIn:
			vals := make(bson.A, len(c.Values))
			for i, v := range c.Values {
				vals[i] = toBSON(v)
			}
			out = append(out, bson.E{Key: c.Field, Value: bson.M{"$in": vals}})
		case OpExists:
			out = append(out, bson.E{Key: c.Field, Value: bson.M{"$exists": true, "$ne": nil}})
		}
	}
	return out
}

func updateBSON(u Update, now time.Time) bson.M {
	set := bson.M{document.UpdatedAtField: now}
	for k, v := range u.Set {
		set[k] = toBSON(v)
	}
	out := bson.M{"$set": set}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, k := range u.Unset {
			unset[k] = ""
		}
		out["$unset"] = unset
	}
	if len(u.Inc) > 0 {
		inc := bson.M{}
		for k, v := range u.Inc {
			inc[k] = v
		}
		out["$inc"] = inc
	}
	if len(u.AddToSet) > 0 {
		add := bson.M{}
		for k, v := range u.AddToSet {
			add[k] = toBSON(v)
		}
		out["$addToSet"] = add
	}
	if len(u.Pull) > 0 {
		pull := bson.M{}
		for k, v := range u.Pull {
			pull[k] = toBSON(v)
		}
		out["$pull"] = pull
	}
	return out
}

// toBSON converts documents and arrays into driver types.
func toBSON(v any) any {
	switch t := v.(type) {
	case document.Document:
		out := make(bson.M, len(t))
		for k, e := range t {
			out[k] = toBSON(e)
		}
		return out
	case map[string]any:
		return toBSON(document.Document(t))
	case []any, []bson.ObjectID, []document.Document, []string:
		vals := document.Values(t)
		out := make(bson.A, len(vals))
		for i, e := range vals {
			out[i] = toBSON(e)
		}
		return out
	default:
		return v
	}
}

// fromBSON converts decoded driver values back into documents, arrays and
// time.Time timestamps.
func fromBSON(v bson.M) document.Document {
	out := make(document.Document, len(v))
	for k, e := range v {
		out[k] = fromBSONValue(e)
	}
	return out
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return fromBSON(t)
	case bson.D:
		out := make(document.Document, len(t))
		for _, e := range t {
			out[e.Key] = fromBSONValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	case bson.DateTime:
		return t.Time().UTC()
	case int32:
		return int64(t)
	default:
		return v
	}
}
