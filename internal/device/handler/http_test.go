package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"devicetrail/internal/device/domain"
	"devicetrail/internal/device/service"
)

type fakeDeviceService struct {
	registerErr error
	recordErr   error
	registered  []string
	userCalls   []string
	domainCalls []string
}

func (f *fakeDeviceService) Register(ctx context.Context, deviceID, macAddr string) (*domain.Device, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, deviceID)
	now := time.Unix(1000, 0).UTC()
	return &domain.Device{ID: "row-1", DeviceID: deviceID, MACAddr: macAddr, CreatedAt: now, UpdatedAt: now}, nil
}

func (f *fakeDeviceService) RecordUserAccess(ctx context.Context, deviceID, userID, ip, macAddr string, now int64) error {
	f.userCalls = append(f.userCalls, deviceID+"/"+userID)
	return f.recordErr
}

func (f *fakeDeviceService) RecordDomainAccess(ctx context.Context, deviceID, domainID, ip, macAddr string, now int64) error {
	f.domainCalls = append(f.domainCalls, deviceID+"/"+domainID)
	return f.recordErr
}

func newTestRouter(svc DeviceService) *mux.Router {
	r := mux.NewRouter()
	NewHandler(svc, zerolog.Nop()).Register(r)
	return r
}

func TestHandleRegister_Created(t *testing.T) {
	svc := &fakeDeviceService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/devices", strings.NewReader(`{"deviceId":"dev-1","macAddr":"aa:bb"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["deviceId"] != "dev-1" {
		t.Errorf("deviceId = %v, want dev-1", body["deviceId"])
	}
}

func TestHandleRegister_MissingDeviceID(t *testing.T) {
	router := newTestRouter(&fakeDeviceService{})

	req := httptest.NewRequest(http.MethodPost, "/devices", strings.NewReader(`{"macAddr":"aa:bb"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRegister_CapacityExceeded(t *testing.T) {
	router := newTestRouter(&fakeDeviceService{registerErr: service.ErrCapacityExceeded})

	req := httptest.NewRequest(http.MethodPost, "/devices", strings.NewReader(`{"deviceId":"dev-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandleRecordUser_NoContent(t *testing.T) {
	svc := &fakeDeviceService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/devices/dev-1/access/users",
		strings.NewReader(`{"userId":"user-1","ip":"10.0.0.1","macAddr":"aa:bb"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body %s", rec.Code, rec.Body.String())
	}
	if len(svc.userCalls) != 1 || svc.userCalls[0] != "dev-1/user-1" {
		t.Errorf("userCalls = %v", svc.userCalls)
	}
}

func TestHandleRecordDomain_NoContent(t *testing.T) {
	svc := &fakeDeviceService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/devices/dev-1/access/domains",
		strings.NewReader(`{"domainId":"dom-1","ip":"10.0.0.1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(svc.domainCalls) != 1 || svc.domainCalls[0] != "dev-1/dom-1" {
		t.Errorf("domainCalls = %v", svc.domainCalls)
	}
}

func TestHandleRecord_MissingEntityID(t *testing.T) {
	router := newTestRouter(&fakeDeviceService{})

	req := httptest.NewRequest(http.MethodPost, "/devices/dev-1/access/users", strings.NewReader(`{"ip":"10.0.0.1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRecord_DeviceUnavailable(t *testing.T) {
	router := newTestRouter(&fakeDeviceService{recordErr: service.ErrDeviceUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/devices/dev-1/access/users", strings.NewReader(`{"userId":"user-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
