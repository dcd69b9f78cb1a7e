package waitlist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/internal/waitlist"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
)

type stubWaitlistService struct {
	waitlist.Service
	added    waitlist.AddInput
	status   enums.WaitlistStatus
	notified uuid.UUID
	roomID   uuid.UUID
	sweep    waitlist.SweepFilter
	sweepErr error
}

func entry(status enums.WaitlistStatus) *models.WaitlistEntry {
	return &models.WaitlistEntry{
		ID:             uuid.New(),
		GuestID:        uuid.New(),
		CheckInDate:    time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2026, 12, 23, 0, 0, 0, 0, time.UTC),
		NumberOfGuests: 2,
		Status:         status,
	}
}

func (s *stubWaitlistService) Add(_ context.Context, input waitlist.AddInput, actor string) (*models.WaitlistEntry, error) {
	s.added = input
	return entry(enums.WaitlistStatusPending), nil
}

func (s *stubWaitlistService) List(_ context.Context, status enums.WaitlistStatus) ([]models.WaitlistEntry, error) {
	s.status = status
	return []models.WaitlistEntry{*entry(status)}, nil
}

func (s *stubWaitlistService) Notify(_ context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	s.notified = id
	e := entry(enums.WaitlistStatusNotified)
	e.ID = id
	return e, nil
}

func (s *stubWaitlistService) Cancel(_ context.Context, id uuid.UUID, actor string) (*models.WaitlistEntry, error) {
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "waitlist entry already converted")
}

func (s *stubWaitlistService) Convert(_ context.Context, id, roomID uuid.UUID, actor string) (*waitlist.ConvertResult, error) {
	s.roomID = roomID
	e := entry(enums.WaitlistStatusConverted)
	return &waitlist.ConvertResult{
		Entry:       *e,
		Reservation: models.Reservation{ID: uuid.New(), RoomID: &roomID, Status: enums.ReservationStatusPending, CheckInDate: e.CheckInDate, CheckOutDate: e.CheckOutDate},
	}, nil
}

func (s *stubWaitlistService) CheckAndNotifyAvailableRooms(_ context.Context, filter waitlist.SweepFilter, actor string) (*waitlist.SweepResult, error) {
	s.sweep = filter
	return &waitlist.SweepResult{Scanned: 3, Notified: 1, Failed: 1}, s.sweepErr
}

func request(method, body, entryID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
	}
	ctx := middleware.WithStaff(req.Context(), uuid.NewString(), "maria", enums.StaffRoleFrontDesk, "jti")
	rctx := chi.NewRouteContext()
	if entryID != "" {
		rctx.URLParams.Add("entryID", entryID)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func TestWaitlistAdd(t *testing.T) {
	svc := &stubWaitlistService{}
	body := `{"guest_id":"` + uuid.NewString() + `","check_in_date":"2026-12-20","check_out_date":"2026-12-23","room_type":"Suite","number_of_guests":2,"contact_email":"ana@example.com"}`
	resp := httptest.NewRecorder()
	WaitlistAdd(svc, nil).ServeHTTP(resp, request(http.MethodPost, body, ""))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.added.RoomType)
	assert.Equal(t, "Suite", *svc.added.RoomType)
	assert.Equal(t, 23, svc.added.CheckOutDate.Day())
	assert.Contains(t, resp.Body.String(), `"check_in_date":"2026-12-20"`)
}

func TestWaitlistListByStatus(t *testing.T) {
	svc := &stubWaitlistService{}
	resp := httptest.NewRecorder()
	WaitlistList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?status=notified", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.WaitlistStatusNotified, svc.status)

	resp = httptest.NewRecorder()
	WaitlistList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWaitlistTransitions(t *testing.T) {
	svc := &stubWaitlistService{}
	id := uuid.New()
	resp := httptest.NewRecorder()
	WaitlistNotify(svc, nil).ServeHTTP(resp, request(http.MethodPost, "", id.String()))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, id, svc.notified)
	assert.Contains(t, resp.Body.String(), `"status":"NOTIFIED"`)

	resp = httptest.NewRecorder()
	WaitlistCancel(svc, nil).ServeHTTP(resp, request(http.MethodPost, "", id.String()))
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = httptest.NewRecorder()
	WaitlistNotify(nil, nil).ServeHTTP(resp, request(http.MethodPost, "", id.String()))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestWaitlistConvert(t *testing.T) {
	svc := &stubWaitlistService{}
	roomID := uuid.New()
	resp := httptest.NewRecorder()
	WaitlistConvert(svc, nil).ServeHTTP(resp, request(http.MethodPost, `{"room_id":"`+roomID.String()+`"}`, uuid.NewString()))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, roomID, svc.roomID)
	assert.Contains(t, resp.Body.String(), `"status":"CONVERTED"`)

	resp = httptest.NewRecorder()
	WaitlistConvert(svc, nil).ServeHTTP(resp, request(http.MethodPost, `{}`, uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWaitlistSweepReportsPartialFailure(t *testing.T) {
	svc := &stubWaitlistService{sweepErr: errors.New("waitlist 1: boom")}
	resp := httptest.NewRecorder()
	WaitlistSweep(svc, nil).ServeHTTP(resp, request(http.MethodPost, `{"from":"2026-12-01","room_type":"Suite"}`, ""))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), svc.sweep.From)
	assert.True(t, svc.sweep.To.IsZero())
	assert.JSONEq(t, `{"data":{"scanned":3,"notified":1,"failed":1}}`, resp.Body.String())
}

func TestWaitlistSweepRejectsMalformedWindow(t *testing.T) {
	for _, body := range []string{`{"from":"2026-13-01"}`, `{"to":"12/01/2026"}`} {
		svc := &stubWaitlistService{}
		resp := httptest.NewRecorder()
		WaitlistSweep(svc, nil).ServeHTTP(resp, request(http.MethodPost, body, ""))

		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.True(t, svc.sweep.From.IsZero())
		assert.True(t, svc.sweep.To.IsZero())
	}
}

func TestSweepRequestFilterReportsBadDate(t *testing.T) {
	_, err := sweepRequest{From: "2026-02-30"}.toFilter()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	filter, err := sweepRequest{From: "2026-12-01", To: "2026-12-31", RoomType: " Suite "}.toFilter()
	require.NoError(t, err)
	assert.Equal(t, "Suite", filter.RoomType)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), filter.To)
}
