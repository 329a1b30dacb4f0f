package model

// Request bodies. Validation tags are checked by the struct validator
// before any service call.

type PublishVideoRequest struct {
	Title       string  `json:"title" form:"title" validate:"required,max=200"`
	Description string  `json:"description" form:"description" validate:"required,max=5000"`
	Duration    float64 `json:"duration" form:"duration" validate:"gte=0"`
}

type UpdateVideoRequest struct {
	Title       string `json:"title" form:"title" validate:"omitempty,max=200"`
	Description string `json:"description" form:"description" validate:"omitempty,max=5000"`
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type TweetRequest struct {
	Content string `json:"content" form:"content" validate:"required,max=500"`
}

type CreatePlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdatePlaylistRequest struct {
	Name        string `json:"name" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	FullName string `json:"fullName" form:"fullName" validate:"required,max=100"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
}
