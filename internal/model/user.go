package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// User is an account and, at the same time, a channel others subscribe to.
// Password and RefreshToken never leave the service layer.
type User struct {
	ID           bson.ObjectID   `json:"_id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FullName     string          `json:"fullName"`
	Avatar       string          `json:"avatar"`
	CoverImage   string          `json:"coverImage"`
	Password     string          `json:"-"`
	RefreshToken string          `json:"-"`
	WatchHistory []bson.ObjectID `json:"watchHistory"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func UserFromDocument(d document.Document) User {
	return User{
		ID:           d.ID(),
		Username:     d.String("username"),
		Email:        d.String("email"),
		FullName:     d.String("fullName"),
		Avatar:       d.String("avatar"),
		CoverImage:   d.String("coverImage"),
		Password:     d.String("password"),
		RefreshToken: d.String("refreshToken"),
		WatchHistory: d.ObjectIDs("watchHistory"),
		CreatedAt:    d.Time(document.CreatedAtField),
		UpdatedAt:    d.Time(document.UpdatedAtField),
	}
}

func (u User) Document() document.Document {
	history := make([]any, len(u.WatchHistory))
	for i, id := range u.WatchHistory {
		history[i] = id
	}
	d := document.Document{
		"username":     u.Username,
		"email":        u.Email,
		"fullName":     u.FullName,
		"avatar":       u.Avatar,
		"coverImage":   u.CoverImage,
		"password":     u.Password,
		"watchHistory": history,
	}
	if u.RefreshToken != "" {
		d["refreshToken"] = u.RefreshToken
	} else {
		d["refreshToken"] = nil
	}
	setIdentity(d, u.ID, u.CreatedAt, u.UpdatedAt)
	return d
}

func (u User) MediaRefs() []string {
	return nonEmpty(u.Avatar, u.CoverImage)
}
