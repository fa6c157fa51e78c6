package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"lendit/internal/config"
	"lendit/internal/database"
	"lendit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookingService struct {
	createFn func(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error)
	decideFn func(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error)
	getFn    func(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error)
	listFn   func(ctx context.Context, actorID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error)

	lastState models.BookingState
	lastFrom  int
	lastSize  int
}

func (s *stubBookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error) {
	if s.createFn != nil {
		return s.createFn(ctx, bookerID, itemID, start, end)
	}
	return nil, fmt.Errorf("unexpected CreateBooking call")
}

func (s *stubBookingService) DecideBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error) {
	if s.decideFn != nil {
		return s.decideFn(ctx, ownerID, bookingID, approved)
	}
	return nil, fmt.Errorf("unexpected DecideBooking call")
}

func (s *stubBookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error) {
	if s.getFn != nil {
		return s.getFn(ctx, actorID, bookingID)
	}
	return nil, fmt.Errorf("unexpected GetBooking call")
}

func (s *stubBookingService) ListForBooker(ctx context.Context, bookerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error) {
	s.lastState, s.lastFrom, s.lastSize = state, from, size
	if s.listFn != nil {
		return s.listFn(ctx, bookerID, state, from, size)
	}
	return []*models.BookingDetails{}, nil
}

func (s *stubBookingService) ListForOwner(ctx context.Context, ownerID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error) {
	s.lastState, s.lastFrom, s.lastSize = state, from, size
	if s.listFn != nil {
		return s.listFn(ctx, ownerID, state, from, size)
	}
	return []*models.BookingDetails{}, nil
}

type stubItemService struct {
	getFn  func(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error)
	listFn func(ctx context.Context) ([]*models.Item, error)
}

func (s *stubItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error) {
	if s.getFn != nil {
		return s.getFn(ctx, itemID, viewerID)
	}
	return nil, fmt.Errorf("unexpected GetItem call")
}

func (s *stubItemService) GetItems(ctx context.Context) ([]*models.Item, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return []*models.Item{}, nil
}

type stubUserService struct {
	getFn  func(ctx context.Context, id int64) (*models.User, error)
	listFn func(ctx context.Context) ([]*models.User, error)
}

func (s *stubUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, fmt.Errorf("unexpected GetUser call")
}

func (s *stubUserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return []*models.User{}, nil
}

type stubReportBuilder struct {
	data []byte
	err  error

	start time.Time
	end   time.Time
}

func (s *stubReportBuilder) BuildReport(ctx context.Context, start, end time.Time) ([]byte, error) {
	s.start, s.end = start, end
	return s.data, s.err
}

func testServer(t *testing.T, bookings *stubBookingService, items *stubItemService, users *stubUserService, exporter ReportBuilder) http.Handler {
	t.Helper()
	if bookings == nil {
		bookings = &stubBookingService{}
	}
	if items == nil {
		items = &stubItemService{}
	}
	if users == nil {
		users = &stubUserService{}
	}

	logger := zerolog.New(os.Stdout)
	srv := NewHTTPServer(config.APIConfig{Port: 0}, bookings, items, users, exporter, nil, &logger)
	return srv.server.Handler
}

func doRequest(t *testing.T, handler http.Handler, method, target string, actorID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if actorID > 0 {
		req.Header.Set("X-User-Id", fmt.Sprintf("%d", actorID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sampleDetails(id int64) *models.BookingDetails {
	return &models.BookingDetails{
		Booking: models.Booking{
			ID:       id,
			ItemID:   1,
			BookerID: 2,
			Start:    time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC),
			End:      time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC),
			Status:   models.StatusWaiting,
		},
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	bookings := &stubBookingService{
		createFn: func(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error) {
			assert.Equal(t, int64(2), bookerID)
			assert.Equal(t, int64(1), itemID)
			return sampleDetails(10), nil
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	body := `{"itemId":1,"start":"2026-09-10T10:00:00Z","end":"2026-09-12T10:00:00Z"}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", 2, body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var got models.BookingDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(10), got.Booking.ID)
	assert.Equal(t, models.StatusWaiting, got.Booking.Status)
}

func TestCreateBookingEndpoint_Validation(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"itemId":`},
		{"unknown field", `{"itemId":1,"start":"2026-09-10T10:00:00Z","end":"2026-09-12T10:00:00Z","extra":true}`},
		{"missing item", `{"start":"2026-09-10T10:00:00Z","end":"2026-09-12T10:00:00Z"}`},
		{"missing dates", `{"itemId":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", 2, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateBookingEndpoint_MissingActor(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", 0, `{"itemId":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-User-Id")
}

func TestCreateBookingEndpoint_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"own item", database.ErrOwnBooking, http.StatusNotFound},
		{"unknown item", database.ErrItemNotFound, http.StatusNotFound},
		{"unavailable", database.ErrItemNotAvailable, http.StatusBadRequest},
		{"past start", database.ErrStartInPast, http.StatusBadRequest},
		{"conflict", database.ErrTimeConflict, http.StatusConflict},
		{"unexpected", fmt.Errorf("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := &stubBookingService{
				createFn: func(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingDetails, error) {
					return nil, fmt.Errorf("create booking: %w", tt.err)
				},
			}
			handler := testServer(t, bookings, nil, nil, nil)
			body := `{"itemId":1,"start":"2026-09-10T10:00:00Z","end":"2026-09-12T10:00:00Z"}`
			rec := doRequest(t, handler, http.MethodPost, "/api/v1/bookings", 2, body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestDecideBookingEndpoint(t *testing.T) {
	bookings := &stubBookingService{
		decideFn: func(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error) {
			assert.Equal(t, int64(1), ownerID)
			assert.Equal(t, int64(10), bookingID)
			assert.True(t, approved)
			details := sampleDetails(10)
			details.Booking.Status = models.StatusApproved
			return details, nil
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/bookings/10?approved=true", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.BookingDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusApproved, got.Booking.Status)
}

func TestDecideBookingEndpoint_BadApprovedParam(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	for _, target := range []string{
		"/api/v1/bookings/10",
		"/api/v1/bookings/10?approved=maybe",
	} {
		rec := doRequest(t, handler, http.MethodPatch, target, 1, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestDecideBookingEndpoint_NotOwner(t *testing.T) {
	bookings := &stubBookingService{
		decideFn: func(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error) {
			return nil, fmt.Errorf("user %d on booking %d: %w", ownerID, bookingID, database.ErrNotAuthorized)
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/bookings/10?approved=false", 3, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecideBookingEndpoint_AlreadyDecided(t *testing.T) {
	bookings := &stubBookingService{
		decideFn: func(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingDetails, error) {
			return nil, fmt.Errorf("booking %d has status APPROVED: %w", bookingID, database.ErrNotWaiting)
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodPatch, "/api/v1/bookings/10?approved=true", 1, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingEndpoint(t *testing.T) {
	bookings := &stubBookingService{
		getFn: func(ctx context.Context, actorID, bookingID int64) (*models.BookingDetails, error) {
			if actorID == 3 {
				return nil, fmt.Errorf("user 3 on booking 10: %w", database.ErrNotAuthorized)
			}
			return sampleDetails(bookingID), nil
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings/10", 2, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings/10", 3, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetBookingEndpoint_BadID(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings/abc", 2, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings/10/extra", 2, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBookingsEndpoint_Defaults(t *testing.T) {
	bookings := &stubBookingService{}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.StateAll, bookings.lastState)
	assert.Equal(t, 0, bookings.lastFrom)
	assert.Equal(t, models.DefaultListSize, bookings.lastSize)
}

func TestListBookingsEndpoint_Params(t *testing.T) {
	bookings := &stubBookingService{}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings?state=future&from=5&size=3", 2, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.StateFuture, bookings.lastState)
	assert.Equal(t, 5, bookings.lastFrom)
	assert.Equal(t, 3, bookings.lastSize)
}

func TestListBookingsEndpoint_UnknownState(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings?state=banana", 2, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBookingsEndpoint_BadPaging(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings?from=abc", 2, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/bookings?size=oops", 2, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerBookingsEndpoint(t *testing.T) {
	bookings := &stubBookingService{
		listFn: func(ctx context.Context, actorID int64, state models.BookingState, from, size int) ([]*models.BookingDetails, error) {
			assert.Equal(t, int64(1), actorID)
			return []*models.BookingDetails{sampleDetails(10)}, nil
		},
	}
	handler := testServer(t, bookings, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/bookings/owner?state=WAITING", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StateWaiting, bookings.lastState)

	var payload struct {
		Bookings []*models.BookingDetails `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Bookings, 1)
	assert.Equal(t, int64(10), payload.Bookings[0].Booking.ID)
}

func TestItemsEndpoint(t *testing.T) {
	items := &stubItemService{
		listFn: func(ctx context.Context) ([]*models.Item, error) {
			return []*models.Item{{ID: 1, OwnerID: 1, Name: "Drill", Available: true}}, nil
		},
	}
	handler := testServer(t, nil, items, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/items", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Items []*models.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "Drill", payload.Items[0].Name)
}

func TestItemByIDEndpoint(t *testing.T) {
	items := &stubItemService{
		getFn: func(ctx context.Context, itemID, viewerID int64) (*models.ItemDetails, error) {
			if itemID != 1 {
				return nil, fmt.Errorf("item %d: %w", itemID, database.ErrItemNotFound)
			}
			return &models.ItemDetails{
				Item:        models.Item{ID: 1, OwnerID: viewerID, Name: "Drill", Available: true},
				LastBooking: &sampleDetails(5).Booking,
			}, nil
		},
	}
	handler := testServer(t, nil, items, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/items/1", 1, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ItemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.LastBooking)
	assert.Equal(t, int64(5), got.LastBooking.ID)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/items/99", 1, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersEndpoints(t *testing.T) {
	users := &stubUserService{
		getFn: func(ctx context.Context, id int64) (*models.User, error) {
			if id != 1 {
				return nil, fmt.Errorf("user %d: %w", id, database.ErrUserNotFound)
			}
			return &models.User{ID: 1, Name: "Owner", Email: "owner@example.com"}, nil
		},
		listFn: func(ctx context.Context) ([]*models.User, error) {
			return []*models.User{{ID: 1, Name: "Owner"}}, nil
		},
	}
	handler := testServer(t, nil, nil, users, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/users", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/users/1", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Owner", got.Name)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/users/99", 0, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	exporter := &stubReportBuilder{data: []byte("xlsx-bytes")}
	handler := testServer(t, nil, nil, nil, exporter)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/export?start=2026-08-01&end=2026-08-31", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings_2026-08-01.xlsx")

	// Inclusive end date is widened to the next midnight.
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), exporter.start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), exporter.end)
}

func TestExportEndpoint_BadRange(t *testing.T) {
	handler := testServer(t, nil, nil, nil, &stubReportBuilder{})

	for _, target := range []string{
		"/api/v1/export?start=yesterday",
		"/api/v1/export?end=31.08.2026",
		"/api/v1/export?start=2026-09-01&end=2026-08-01",
	} {
		rec := doRequest(t, handler, http.MethodGet, target, 0, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestExportEndpoint_NotConfigured(t *testing.T) {
	handler := testServer(t, nil, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/export", 0, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	handler := testServer(t, nil, nil, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/healthz", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMethodNotAllowed(t *testing.T) {
	handler := testServer(t, &stubBookingService{}, nil, nil, nil)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodDelete, "/api/v1/bookings"},
		{http.MethodPost, "/api/v1/bookings/owner"},
		{http.MethodPost, "/api/v1/items"},
		{http.MethodPut, "/api/v1/bookings/10"},
		{http.MethodPost, "/api/v1/users"},
	}
	for _, tt := range tests {
		rec := doRequest(t, handler, tt.method, tt.target, 1, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tt.method+" "+tt.target)
	}
}
