package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Video is an uploaded video. Unpublished videos are visible to their owner
// only.
type Video struct {
	ID          bson.ObjectID `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	VideoFile   string        `json:"videoFile"`
	Thumbnail   string        `json:"thumbnail"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	IsPublished bool          `json:"isPublished"`
	Owner       bson.ObjectID `json:"owner"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func VideoFromDocument(d document.Document) Video {
	return Video{
		ID:          d.ID(),
		Title:       d.String("title"),
		Description: d.String("description"),
		VideoFile:   d.String("videoFile"),
		Thumbnail:   d.String("thumbnail"),
		Duration:    d.Float64("duration"),
		Views:       d.Int64("views"),
		IsPublished: d.Bool("isPublished"),
		Owner:       d.ObjectID("owner"),
		CreatedAt:   d.Time(document.CreatedAtField),
		UpdatedAt:   d.Time(document.UpdatedAtField),
	}
}

// Document returns the stored form of v. Zero identifiers and timestamps
// are left for the store to assign.
func (v Video) Document() document.Document {
	d := document.Document{
		"title":       v.Title,
		"description": v.Description,
		"videoFile":   v.VideoFile,
		"thumbnail":   v.Thumbnail,
		"duration":    v.Duration,
		"views":       v.Views,
		"isPublished": v.IsPublished,
		"owner":       v.Owner,
	}
	setIdentity(d, v.ID, v.CreatedAt, v.UpdatedAt)
	return d
}

// MediaRefs lists the media objects owned by the video.
func (v Video) MediaRefs() []string {
	return nonEmpty(v.VideoFile, v.Thumbnail)
}

func setIdentity(d document.Document, id bson.ObjectID, created, updated time.Time) {
	if !id.IsZero() {
		d[document.IDField] = id
	}
	if !created.IsZero() {
		d[document.CreatedAtField] = created
	}
	if !updated.IsZero() {
		d[document.UpdatedAtField] = updated
	}
}

func nonEmpty(refs ...string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
