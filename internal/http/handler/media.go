package handler

import (
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"

	"vodgate/internal/http/middleware"
	"vodgate/internal/media"
	"vodgate/internal/model"
	"vodgate/internal/service"
)

// StreamMedia returns the handler for GET /media/:category/:filename.
//
// Per-request pipeline, in a fixed order: validate the path, resolve the
// identity (done earlier by middleware), evaluate the access policy, and only
// then touch storage. A denied request never reaches the store, so it cannot
// learn whether the file exists.
func StreamMedia(accessSvc service.AccessService, streamSvc service.StreamService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := media.ValidatePath([]string{c.Params("category"), c.Params("filename")})
		if err != nil {
			return writePathError(c, err)
		}

		ident := middleware.IdentityFromCtx(c)
		decision, err := accessSvc.Evaluate(c.UserContext(), req.Category, ident)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if !decision.Allowed {
			if decision.Reason == model.ReasonUnauthenticated {
				return writeError(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
			}
			return writeError(c, fiber.StatusForbidden, "SUBSCRIPTION_REQUIRED", "Subscription required to access this content")
		}

		stream, err := streamSvc.Open(c.UserContext(), req, c.Get(fiber.HeaderRange))
		if err != nil {
			return writeStreamError(c, err)
		}

		c.Set(fiber.HeaderContentType, stream.MimeType)
		c.Set(fiber.HeaderAcceptRanges, "bytes")
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
		c.Set("Cross-Origin-Resource-Policy", "cross-origin")
		c.Set(fiber.HeaderContentDisposition, stream.Disposition)
		if stream.ContentRange != "" {
			c.Set(fiber.HeaderContentRange, stream.ContentRange)
		}

		// SendStream hands the body to the transport lazily; fasthttp closes
		// it when the response completes or the client disconnects, which
		// releases the store handle.
		c.Status(stream.StatusCode)
		if stream.ContentLength > math.MaxInt {
			// int is 32-bit here and cannot carry the length; stream chunked.
			return c.SendStream(stream.Body)
		}
		return c.SendStream(stream.Body, int(stream.ContentLength))
	}
}

// VideoAccess returns the handler for GET /media/access: a lightweight probe
// the player UI uses to decide between the play button and a subscribe
// call-to-action.
func VideoAccess(accessSvc service.AccessService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident := middleware.IdentityFromCtx(c)
		if ident == nil {
			return writeError(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
		}

		canWatch, err := accessSvc.CanWatch(c.UserContext(), ident)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		message := "Subscription required"
		if canWatch {
			message = "Access granted"
		}
		return c.JSON(fiber.Map{
			"can_watch": canWatch,
			"message":   message,
		})
	}
}

func writePathError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, media.ErrWrongSegmentCount):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "Invalid path format. Expected: /media/{category}/{filename}")
	case errors.Is(err, media.ErrUnknownCategory):
		return writeError(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "Invalid file type. Allowed types: posters, videos, subtitles")
	case errors.Is(err, media.ErrDisallowedExtension):
		return writeError(c, fiber.StatusBadRequest, "INVALID_EXTENSION", "Invalid file extension")
	case errors.Is(err, media.ErrPathTraversal):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
	default:
		return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "Invalid path")
	}
}

func writeStreamError(c *fiber.Ctx, err error) error {
	var rangeErr *service.RangeNotSatisfiableError
	switch {
	case errors.Is(err, service.ErrAssetNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.As(err, &rangeErr):
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", rangeErr.TotalSize))
		return writeError(c, fiber.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "Requested range not satisfiable")
	case errors.Is(err, media.ErrMalformedRange):
		return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE", "Invalid Range header")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
