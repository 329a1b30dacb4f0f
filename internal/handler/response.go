// Package handler adapts HTTP requests to service calls. Every response,
// success or failure, is written as a model.Envelope.
package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
)

var validate = middleware.NewStructValidator()

// ErrorHandler renders handler errors as envelopes. Internal causes are
// logged and replaced with a generic message.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return middleware.ErrorResponse(c, fe.Code, fe.Message)
	}

	switch apperr.KindOf(err) {
	case apperr.KindInternal:
		log.Error().Err(err).Str("path", middleware.SanitizePath(c.Path())).Msg("request failed")
	case apperr.KindUpstream:
		log.Warn().Err(err).Str("path", middleware.SanitizePath(c.Path())).Msg("upstream unavailable")
	}
	return middleware.ErrorResponse(c, middleware.StatusOf(err), apperr.Message(err))
}

func respond(c fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(model.NewEnvelope(status, data, message))
}

func success(c fiber.Ctx, data any, message string) error {
	return respond(c, fiber.StatusOK, data, message)
}

func created(c fiber.Ctx, data any, message string) error {
	return respond(c, fiber.StatusCreated, data, message)
}

// toggled reports a toggle outcome; message is chosen by whether the
// relation now exists.
func toggled(c fiber.Ctx, res model.ToggleResult, added, removed string) error {
	if res.Created {
		return success(c, res, added)
	}
	return success(c, res, removed)
}

func objectIDParam(c fiber.Ctx, name string) (bson.ObjectID, error) {
	id, msg := middleware.ValidateObjectID(c.Params(name), name)
	if msg != "" {
		return bson.ObjectID{}, apperr.Validation("%s", msg)
	}
	return id, nil
}

func pageRequest(c fiber.Ctx) (pipeline.PageRequest, error) {
	return pipeline.ParsePageRequest(c.Query("page"), c.Query("limit"))
}

// bind decodes the body into out (JSON, urlencoded or multipart, by
// content type) and checks its validate tags.
func bind(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return validate.Validate(out)
}

// uploads opens multipart files as media objects and closes them once the
// handler is done.
type uploads struct {
	c     fiber.Ctx
	files []multipart.File
}

func newUploads(c fiber.Ctx) *uploads {
	return &uploads{c: c}
}

// one returns the file sent as field, or nil when there is none.
func (u *uploads) one(field string) (*media.Object, error) {
	fh, err := u.c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	obj, err := u.open(fh)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// many returns every file sent as field, in request order.
func (u *uploads) many(field string) ([]media.Object, error) {
	form, err := u.c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	headers := form.File[field]
	objs := make([]media.Object, 0, len(headers))
	for _, fh := range headers {
		obj, err := u.open(fh)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (u *uploads) open(fh *multipart.FileHeader) (media.Object, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Object{}, apperr.Validation("Could not read uploaded file %s", fh.Filename)
	}
	u.files = append(u.files, f)
	return media.Object{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, nil
}

func (u *uploads) Close() {
	for _, f := range u.files {
		if err := f.Close(); err != nil {
			log.Debug().Err(err).Msg("upload: close failed")
		}
	}
}
