package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// fieldTypes lists the fields whose JSON text must be turned back into
// identifiers when a document is read.
type fieldTypes struct {
	ids      []string
	idArrays []string
}

var collectionFields = map[Collection]fieldTypes{
	Users:         {idArrays: []string{"watchHistory"}},
	Videos:        {ids: []string{"owner"}},
	Comments:      {ids: []string{"video", "owner"}},
	Tweets:        {ids: []string{"owner"}},
	Likes:         {ids: []string{"video", "comment", "tweet", "likedBy"}},
	Subscriptions: {ids: []string{"subscriber", "channel"}},
	Playlists:     {ids: []string{"owner"}, idArrays: []string{"videos"}},
}

// Postgres keeps each collection in a JSONB table.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the collection tables and indexes if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error) {
	table, err := tableName(c)
	if err != nil {
		return nil, err
	}
	doc := prepareInsert(d, p.now())
	raw, err := encodeJSON(doc)
	if err != nil {
		return nil, err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO `+table+` (id, doc) VALUES ($1, $2::jsonb)`,
		doc.ID().Hex(), raw)
	if err != nil {
		return nil, mapPgError(err)
	}
	return doc, nil
}

func (p *Postgres) Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error) {
	table, err := tableName(c)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(f)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `SELECT doc FROM `+table+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]document.Document, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := decodeJSON(c, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) FindOne(ctx context.Context, c Collection, f Filter) (document.Document, error) {
	table, err := tableName(c)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(f)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = p.pool.QueryRow(ctx, `SELECT doc FROM `+table+where+` ORDER BY seq LIMIT 1`, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeJSON(c, raw)
}

// Update is a read-modify-write of the first matching row under a row lock.
func (p *Postgres) Update(ctx context.Context, c Collection, f Filter, u Update) (document.Document, error) {
	table, err := tableName(c)
	if err != nil {
		return nil, err
	}
	where, args, err := buildWhere(f)
	if err != nil {
		return nil, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM `+table+where+` ORDER BY seq LIMIT 1 FOR UPDATE`, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc, err := decodeJSON(c, raw)
	if err != nil {
		return nil, err
	}
	u.Apply(doc, p.now())
	next, err := encodeJSON(doc)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE `+table+` SET doc = $1::jsonb WHERE id = $2`, next, doc.ID().Hex()); err != nil {
		return nil, mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err)
	}
	return doc, nil
}

func (p *Postgres) Delete(ctx context.Context, c Collection, f Filter) (int64, error) {
	table, err := tableName(c)
	if err != nil {
		return 0, err
	}
	where, args, err := buildWhere(f)
	if err != nil {
		return 0, err
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM `+table+where, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func tableName(c Collection) (string, error) {
	if _, ok := collectionFields[c]; !ok {
		return "", fmt.Errorf("store: unknown collection %q", c)
	}
	return string(c), nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// buildWhere renders a filter as a WHERE clause over the doc column.
func buildWhere(f Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for _, c := range f {
		path := jsonPath(c.Field)
		switch c.Op {
		case OpEq:
			raw, err := encodeJSON(c.Value)
			if err != nil {
				return "", nil, err
			}
			args = append(args, raw)
			n := len(args)
			clauses = append(clauses, fmt.Sprintf(
				"(%s = $%d::jsonb OR %s @> jsonb_build_array($%d::jsonb))", path, n, path, n))
		case OpIn:
			raw, err := encodeJSON(c.Values)
			if err != nil {
				return "", nil, err
			}
			args = append(args, raw)
			clauses = append(clauses, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM jsonb_array_elements($%d::jsonb) e WHERE %s = e OR %s @> jsonb_build_array(e))",
				len(args), path, path))
		case OpExists:
			clauses = append(clauses, fmt.Sprintf(
				"(%s IS NOT NULL AND %s <> 'null'::jsonb)", path, path))
		default:
			return "", nil, fmt.Errorf("store: unsupported operator %d", c.Op)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func jsonPath(field string) string {
	var b strings.Builder
	b.WriteString("doc")
	for _, part := range strings.Split(field, ".") {
		b.WriteString("->'")
		b.WriteString(strings.ReplaceAll(part, "'", "''"))
		b.WriteString("'")
	}
	return b.String()
}

// encodeJSON converts identifiers to hex text and timestamps to RFC 3339
// before marshalling.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(toJSONValue(v))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func toJSONValue(v any) any {
	switch t := v.(type) {
	case bson.ObjectID:
		return t.Hex()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case document.Document:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toJSONValue(e)
		}
		return out
	case map[string]any:
		return toJSONValue(document.Document(t))
	case []any, []bson.ObjectID, []document.Document:
		vals := document.Values(t)
		out := make([]any, len(vals))
		for i, e := range vals {
			out[i] = toJSONValue(e)
		}
		return out
	default:
		return v
	}
}

func decodeJSON(c Collection, raw []byte) (document.Document, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c, err)
	}
	d, _ := document.AsDocument(document.Normalize(m))
	restoreTypes(c, d)
	return d, nil
}

func restoreTypes(c Collection, d document.Document) {
	if id, ok := parseID(d[document.IDField]); ok {
		d[document.IDField] = id
	}
	for _, f := range []string{document.CreatedAtField, document.UpdatedAtField} {
		if s, ok := d[f].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				d[f] = t
			}
		}
	}

	ft := collectionFields[c]
	for _, f := range ft.ids {
		if id, ok := parseID(d[f]); ok {
			d[f] = id
		}
	}
	for _, f := range ft.idArrays {
		vals, ok := d[f].([]any)
		if !ok {
			continue
		}
		for i, e := range vals {
			if id, ok := parseID(e); ok {
				vals[i] = id
			}
		}
	}
}

func parseID(v any) (bson.ObjectID, bool) {
	s, ok := v.(string)
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(s)
	return id, err == nil
}
