package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vodgate/internal/http/middleware"
	"vodgate/internal/media"
	"vodgate/internal/model"
	"vodgate/internal/service"
	serviceMocks "vodgate/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newMediaApp wires the media routes with mocked services. A non-nil ident is
// injected into locals the way the Identity middleware would.
func newMediaApp(accessSvc service.AccessService, streamSvc service.StreamService, ident *model.Identity) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	if ident != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.IdentityLocalKey, ident)
			return c.Next()
		})
	}
	app.Get("/media/access", VideoAccess(accessSvc))
	app.Get("/media/:category/:filename", StreamMedia(accessSvc, streamSvc))
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func textStream(content string, status int, contentRange, mimeType, disposition string, total int64) *service.Stream {
	return &service.Stream{
		Body:          io.NopCloser(strings.NewReader(content)),
		StatusCode:    status,
		ContentLength: int64(len(content)),
		TotalSize:     total,
		ContentRange:  contentRange,
		MimeType:      mimeType,
		Disposition:   disposition,
	}
}

func TestStreamMedia_AnonymousPoster(t *testing.T) {
	// Scenario: anonymous request for an existing poster is served in full.
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)
	posterReq := media.AssetRequest{Category: media.CategoryPosters, Filename: "cover.jpg"}

	mAccess.On("Evaluate", mock.Anything, media.CategoryPosters, (*model.Identity)(nil)).
		Return(model.AccessDecision{Allowed: true, Reason: model.ReasonPublic}, nil)
	mStream.On("Open", mock.Anything, posterReq, "").
		Return(textStream("fake-jpeg-bytes", 200, "", "image/jpeg", `inline; filename="cover.jpg"`, 15), nil)

	app := newMediaApp(mAccess, mStream, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/posters/cover.jpg", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "public, max-age=31536000", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, `inline; filename="cover.jpg"`, resp.Header.Get("Content-Disposition"))
	assert.Empty(t, resp.Header.Get("Content-Range"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "fake-jpeg-bytes", string(body))

	mAccess.AssertExpectations(t)
	mStream.AssertExpectations(t)
}

func TestStreamMedia_ZeroBytePosterServesEmpty200(t *testing.T) {
	// A plain GET of a zero-byte file is a normal empty response, not a 416.
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)
	posterReq := media.AssetRequest{Category: media.CategoryPosters, Filename: "blank.png"}

	mAccess.On("Evaluate", mock.Anything, media.CategoryPosters, (*model.Identity)(nil)).
		Return(model.AccessDecision{Allowed: true, Reason: model.ReasonPublic}, nil)
	mStream.On("Open", mock.Anything, posterReq, "").
		Return(textStream("", 200, "", "image/png", `inline; filename="blank.png"`, 0), nil)

	app := newMediaApp(mAccess, mStream, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/posters/blank.png", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Range"))

	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestStreamMedia_AnonymousVideoIsUnauthorized(t *testing.T) {
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)

	mAccess.On("Evaluate", mock.Anything, media.CategoryVideos, (*model.Identity)(nil)).
		Return(model.AccessDecision{Allowed: false, Reason: model.ReasonUnauthenticated}, nil)

	app := newMediaApp(mAccess, mStream, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/videos/movie.mp4", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "AUTH_REQUIRED", body.Error.Code)
	assert.Equal(t, "Authentication required", body.Error.Message)

	// A denied request must never reach the store, not even for Stat.
	mStream.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
}

func TestStreamMedia_ExpiredSubscriptionIsForbidden(t *testing.T) {
	ident := &model.Identity{Subject: "u1", Email: "expired@example.com"}
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)

	mAccess.On("Evaluate", mock.Anything, media.CategoryVideos, ident).
		Return(model.AccessDecision{Allowed: false, Reason: model.ReasonSubscriptionRequired}, nil)

	app := newMediaApp(mAccess, mStream, ident)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/videos/movie.mp4", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "SUBSCRIPTION_REQUIRED", body.Error.Code)
	assert.Equal(t, "Subscription required to access this content", body.Error.Message)

	mStream.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
}

func TestStreamMedia_AdminRangeRequest(t *testing.T) {
	// Scenario: a staff identity without a subscription streams a subtitle range.
	ident := &model.Identity{Subject: "a1", Email: "admin@example.com"}
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)
	subReq := media.AssetRequest{Category: media.CategorySubtitles, Filename: "ep1.vtt"}

	mAccess.On("Evaluate", mock.Anything, media.CategorySubtitles, ident).
		Return(model.AccessDecision{Allowed: true, Reason: model.ReasonRoleBypass}, nil)
	mStream.On("Open", mock.Anything, subReq, "bytes=100-199").
		Return(textStream(strings.Repeat("s", 100), 206, "bytes 100-199/5000", "text/vtt", `inline; filename="ep1.vtt"`, 5000), nil)

	app := newMediaApp(mAccess, mStream, ident)
	req := httptest.NewRequest(http.MethodGet, "/media/subtitles/ep1.vtt", nil)
	req.Header.Set("Range", "bytes=100-199")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 100-199/5000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "text/vtt", resp.Header.Get("Content-Type"))

	body, _ := io.ReadAll(resp.Body)
	assert.Len(t, body, 100)

	mAccess.AssertExpectations(t)
	mStream.AssertExpectations(t)
}

func TestStreamMedia_PathValidationRejectsBeforeServices(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode string
	}{
		{
			name:     "parent directory sequence",
			target:   "/media/videos/..movie.mp4",
			wantCode: "INVALID_FILENAME",
		},
		{
			name:     "encoded backslash traversal",
			target:   "/media/videos/..%5C..%5Cetc%5Cpasswd.mp4",
			wantCode: "INVALID_FILENAME",
		},
		{
			name:     "unknown category",
			target:   "/media/thumbnails/cover.jpg",
			wantCode: "INVALID_CATEGORY",
		},
		{
			name:     "disallowed extension",
			target:   "/media/videos/movie.exe",
			wantCode: "INVALID_EXTENSION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mAccess := new(serviceMocks.MockAccessService)
			mStream := new(serviceMocks.MockStreamService)
			app := newMediaApp(mAccess, mStream, nil)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)

			// Rejected before authorization and before any storage access.
			mAccess.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
			mStream.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStreamMedia_StreamErrors(t *testing.T) {
	ident := &model.Identity{Subject: "u1", Email: "user@example.com"}
	allow := model.AccessDecision{Allowed: true, Reason: model.ReasonActiveSubscription}

	tests := []struct {
		name        string
		openErr     error
		wantStatus  int
		wantCode    string
		checkHeader func(t *testing.T, resp *http.Response)
	}{
		{
			name:       "missing file",
			openErr:    service.ErrAssetNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "malformed range",
			openErr:    media.ErrMalformedRange,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_RANGE",
		},
		{
			name:       "unsatisfiable range",
			openErr:    &service.RangeNotSatisfiableError{TotalSize: 5000},
			wantStatus: http.StatusRequestedRangeNotSatisfiable,
			wantCode:   "RANGE_NOT_SATISFIABLE",
			checkHeader: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "bytes */5000", resp.Header.Get("Content-Range"))
			},
		},
		{
			name:       "backend failure",
			openErr:    errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mAccess := new(serviceMocks.MockAccessService)
			mStream := new(serviceMocks.MockStreamService)
			mAccess.On("Evaluate", mock.Anything, media.CategoryVideos, ident).Return(allow, nil)
			mStream.On("Open", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.openErr)

			app := newMediaApp(mAccess, mStream, ident)
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/videos/movie.mp4", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.checkHeader != nil {
				tt.checkHeader(t, resp)
			}
		})
	}
}

func TestStreamMedia_AccessServiceFailure(t *testing.T) {
	ident := &model.Identity{Subject: "u1", Email: "user@example.com"}
	mAccess := new(serviceMocks.MockAccessService)
	mStream := new(serviceMocks.MockStreamService)
	mAccess.On("Evaluate", mock.Anything, media.CategoryVideos, ident).
		Return(model.AccessDecision{}, errors.New("db down"))

	app := newMediaApp(mAccess, mStream, ident)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/videos/movie.mp4", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	mStream.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoAccess(t *testing.T) {
	ident := &model.Identity{Subject: "u1", Email: "user@example.com"}

	t.Run("anonymous", func(t *testing.T) {
		app := newMediaApp(new(serviceMocks.MockAccessService), new(serviceMocks.MockStreamService), nil)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/access", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("subscriber", func(t *testing.T) {
		mAccess := new(serviceMocks.MockAccessService)
		mAccess.On("CanWatch", mock.Anything, ident).Return(true, nil)
		app := newMediaApp(mAccess, new(serviceMocks.MockStreamService), ident)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/access", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["can_watch"])
		assert.Equal(t, "Access granted", body["message"])
	})

	t.Run("no subscription", func(t *testing.T) {
		mAccess := new(serviceMocks.MockAccessService)
		mAccess.On("CanWatch", mock.Anything, ident).Return(false, nil)
		app := newMediaApp(mAccess, new(serviceMocks.MockStreamService), ident)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/access", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["can_watch"])
		assert.Equal(t, "Subscription required", body["message"])
	})

	t.Run("lookup failure", func(t *testing.T) {
		mAccess := new(serviceMocks.MockAccessService)
		mAccess.On("CanWatch", mock.Anything, ident).Return(false, errors.New("db down"))
		app := newMediaApp(mAccess, new(serviceMocks.MockStreamService), ident)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/access", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
