package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/innkeeper-backend/api/controllers/dto"
	"github.com/angelmondragon/innkeeper-backend/api/middleware"
	"github.com/angelmondragon/innkeeper-backend/internal/rooms"
	"github.com/angelmondragon/innkeeper-backend/pkg/db/models"
	"github.com/angelmondragon/innkeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/innkeeper-backend/pkg/errors"
	"github.com/angelmondragon/innkeeper-backend/pkg/types"
)

type stubRoomService struct {
	rooms.Service
	created     rooms.CreateRoomInput
	listFilter  rooms.ListFilter
	rangeQuery  rooms.RangeQuery
	statusInput rooms.UpdateStatusInput
	batch       []rooms.UpdateStatusInput
	actor       string
	statusErr   error
}

func (s *stubRoomService) CreateRoom(_ context.Context, input rooms.CreateRoomInput, actor string) (*models.Room, error) {
	s.created = input
	s.actor = actor
	return &models.Room{ID: uuid.New(), RoomNumber: input.RoomNumber, RoomType: input.RoomType, Price: input.Price, Capacity: input.Capacity, Status: enums.RoomStatusAvailable, IsActive: true}, nil
}

func (s *stubRoomService) ListRooms(_ context.Context, filter rooms.ListFilter) ([]models.Room, error) {
	s.listFilter = filter
	return []models.Room{{ID: uuid.New(), RoomNumber: "101", Status: enums.RoomStatusAvailable}}, nil
}

func (s *stubRoomService) ListAvailableForRange(_ context.Context, query rooms.RangeQuery) ([]models.Room, error) {
	s.rangeQuery = query
	return nil, nil
}

func (s *stubRoomService) UpdateStatus(_ context.Context, input rooms.UpdateStatusInput, actor string) (*rooms.StatusResult, error) {
	s.statusInput = input
	s.actor = actor
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &rooms.StatusResult{
		Room:     models.Room{ID: input.RoomID, Status: input.Status, Version: 4},
		Cleaning: &types.BatchSummary{SuccessCount: 2},
	}, nil
}

func (s *stubRoomService) BatchUpdateStatus(_ context.Context, items []rooms.UpdateStatusInput, actor string) types.BatchSummary {
	s.batch = items
	return types.BatchSummary{SuccessCount: len(items)}
}

func staffCtx(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithStaff(req.Context(), uuid.NewString(), "maria", enums.StaffRoleFrontDesk, "jti"))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRoomCreate(t *testing.T) {
	svc := &stubRoomService{}
	body := `{"room_number":" 305 ","room_type":"DELUXE","price":"180.00","capacity":2,"description":"  sea view  "}`
	req := staffCtx(httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(body)))
	resp := httptest.NewRecorder()
	RoomCreate(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "305", svc.created.RoomNumber)
	assert.True(t, svc.created.Price.Equal(decimal.NewFromInt(180)))
	require.NotNil(t, svc.created.Description)
	assert.Equal(t, "sea view", *svc.created.Description)
	assert.Equal(t, "maria", svc.actor)

	var envelope struct {
		Data dto.Room `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, enums.RoomStatusAvailable, envelope.Data.Status)
}

func TestRoomCreateValidation(t *testing.T) {
	req := staffCtx(httptest.NewRequest(http.MethodPost, "/api/v1/rooms", strings.NewReader(`{"room_number":"305","room_type":"DELUXE","price":"0","capacity":2}`)))
	resp := httptest.NewRecorder()
	RoomCreate(&stubRoomService{}, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRoomListParsesFilters(t *testing.T) {
	svc := &stubRoomService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms?type=SUITE&status=cleaning&active=true", nil)
	resp := httptest.NewRecorder()
	RoomList(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, rooms.ListFilter{RoomType: "SUITE", Status: enums.RoomStatusCleaning, ActiveOnly: true}, svc.listFilter)

	resp = httptest.NewRecorder()
	RoomList(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/rooms?status=DIRTY", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRoomAvailabilityRequiresDates(t *testing.T) {
	svc := &stubRoomService{}
	resp := httptest.NewRecorder()
	RoomAvailability(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/available?check_in=2026-10-20", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	RoomAvailability(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/available?check_in=2026-10-20&check_out=2026-10-22&room_type=DELUXE", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2026-10-22", svc.rangeQuery.CheckOut.Format("2006-01-02"))
	assert.Equal(t, "DELUXE", svc.rangeQuery.RoomType)
	assert.Contains(t, resp.Body.String(), `"data":[]`)
}

func TestRoomUpdateStatus(t *testing.T) {
	svc := &stubRoomService{}
	roomID := uuid.New()
	req := withParam(staffCtx(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"AVAILABLE","expected_version":3}`))), "roomID", roomID.String())
	resp := httptest.NewRecorder()
	RoomUpdateStatus(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, roomID, svc.statusInput.RoomID)
	require.NotNil(t, svc.statusInput.ExpectedVersion)
	assert.EqualValues(t, 3, *svc.statusInput.ExpectedVersion)

	var envelope struct {
		Data dto.RoomStatusResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Data.Cleaning)
	assert.Equal(t, 2, envelope.Data.Cleaning.SuccessCount)
}

func TestRoomUpdateStatusVersionConflict(t *testing.T) {
	svc := &stubRoomService{statusErr: pkgerrors.New(pkgerrors.CodeVersionConflict, "room was modified concurrently")}
	req := withParam(staffCtx(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"MAINTENANCE","expected_version":1}`))), "roomID", uuid.NewString())
	resp := httptest.NewRecorder()
	RoomUpdateStatus(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRoomBatchUpdateStatus(t *testing.T) {
	svc := &stubRoomService{}
	body := `{"items":[{"room_id":"` + uuid.NewString() + `","status":"MAINTENANCE"},{"room_id":"` + uuid.NewString() + `","status":"AVAILABLE"}]}`
	req := staffCtx(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	resp := httptest.NewRecorder()
	RoomBatchUpdateStatus(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, svc.batch, 2)
	assert.Contains(t, resp.Body.String(), `"success_count":2`)

	req = staffCtx(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"room_id":"101","status":"AVAILABLE"}]}`)))
	resp = httptest.NewRecorder()
	RoomBatchUpdateStatus(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
