package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/farmlink/go-market-backend/internal/domain"
	"github.com/farmlink/go-market-backend/internal/services"
)

//
// Service stubs (function fields; a test overrides only what it exercises)
//

type stubCropSvc struct {
	listFn    func(ctx context.Context, search string) ([]domain.Crop, error)
	latestFn  func(ctx context.Context) ([]domain.Crop, error)
	getFn     func(ctx context.Context, id string) (*domain.Crop, error)
	byOwnerFn func(ctx context.Context, email string) ([]domain.Crop, error)
	createFn  func(ctx context.Context, payload bson.M) (string, error)
	updateFn  func(ctx context.Context, id string, payload bson.M) error
	deleteFn  func(ctx context.Context, id string) error
}

func (s *stubCropSvc) List(ctx context.Context, search string) ([]domain.Crop, error) {
	return s.listFn(ctx, search)
}
func (s *stubCropSvc) Latest(ctx context.Context) ([]domain.Crop, error) { return s.latestFn(ctx) }
func (s *stubCropSvc) Get(ctx context.Context, id string) (*domain.Crop, error) {
	return s.getFn(ctx, id)
}
func (s *stubCropSvc) ListByOwner(ctx context.Context, email string) ([]domain.Crop, error) {
	return s.byOwnerFn(ctx, email)
}
func (s *stubCropSvc) Create(ctx context.Context, payload bson.M) (string, error) {
	return s.createFn(ctx, payload)
}
func (s *stubCropSvc) Update(ctx context.Context, id string, payload bson.M) error {
	return s.updateFn(ctx, id, payload)
}
func (s *stubCropSvc) Delete(ctx context.Context, id string) error { return s.deleteFn(ctx, id) }

type stubInterestSvc struct {
	submitFn func(ctx context.Context, payload bson.M) error
	byUserFn func(ctx context.Context, email string) ([]domain.InterestView, error)
	statusFn func(ctx context.Context, cropID, interestID, status string) error
}

func (s *stubInterestSvc) Submit(ctx context.Context, payload bson.M) error {
	return s.submitFn(ctx, payload)
}
func (s *stubInterestSvc) ListByUser(ctx context.Context, email string) ([]domain.InterestView, error) {
	return s.byUserFn(ctx, email)
}
func (s *stubInterestSvc) UpdateStatus(ctx context.Context, cropID, interestID, status string) error {
	return s.statusFn(ctx, cropID, interestID, status)
}

type stubUserSvc struct {
	saveFn func(ctx context.Context, payload bson.M) error
	getFn  func(ctx context.Context, email string) (bson.M, error)
}

func (s *stubUserSvc) Save(ctx context.Context, payload bson.M) error { return s.saveFn(ctx, payload) }
func (s *stubUserSvc) GetByEmail(ctx context.Context, email string) (bson.M, error) {
	return s.getFn(ctx, email)
}

// newTestRouter mounts the handlers on a bare engine (no middleware) with the
// production route table.
func newTestRouter(cropSvc CropService, interestSvc InterestService, userSvc UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(cropSvc, interestSvc, userSvc)

	r.GET("/crops", h.ListCrops)
	r.GET("/crops/latest", h.LatestCrops)
	r.GET("/crops/:id", h.GetCrop)
	r.GET("/my-crops/:email", h.MyCrops)
	r.POST("/crops", h.CreateCrop)
	r.PUT("/crops/:id", h.UpdateCrop)
	r.DELETE("/crops/:id", h.DeleteCrop)

	r.POST("/interests", h.SubmitInterest)
	r.GET("/my-interests/:email", h.MyInterests)
	r.PUT("/interests/status", h.UpdateInterestStatus)

	r.POST("/users", h.SaveUser)
	r.GET("/users/:email", h.GetUser)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return e
}

//
// Crop handlers
//

func TestListCrops_OK_PassesSearch(t *testing.T) {
	var gotSearch string
	crop := &stubCropSvc{
		listFn: func(_ context.Context, search string) ([]domain.Crop, error) {
			gotSearch = search
			return []domain.Crop{{Name: "Wheat"}}, nil
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodGet, "/crops?search=whe", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotSearch != "whe" {
		t.Fatalf("search not forwarded: %q", gotSearch)
	}
	var crops []domain.Crop
	if err := json.Unmarshal(w.Body.Bytes(), &crops); err != nil || len(crops) != 1 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestListCrops_ServiceError_500(t *testing.T) {
	crop := &stubCropSvc{
		listFn: func(_ context.Context, _ string) ([]domain.Crop, error) {
			return nil, errors.New("cursor timeout")
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodGet, "/crops", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	e := decodeErr(t, w)
	if e.Code != ErrCodeListFailed || !strings.Contains(e.Message, "cursor timeout") {
		t.Fatalf("unexpected error envelope: %+v", e)
	}
}

func TestLatestCrops_OK(t *testing.T) {
	crop := &stubCropSvc{
		latestFn: func(_ context.Context) ([]domain.Crop, error) {
			return []domain.Crop{{Name: "new1"}, {Name: "new2"}}, nil
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodGet, "/crops/latest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var crops []domain.Crop
	if err := json.Unmarshal(w.Body.Bytes(), &crops); err != nil || len(crops) != 2 {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetCrop_StatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"invalid id", services.ErrInvalidID, http.StatusBadRequest, ErrCodeBadRequest},
		{"not found", services.ErrCropNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			crop := &stubCropSvc{
				getFn: func(_ context.Context, _ string) (*domain.Crop, error) {
					return nil, tc.err
				},
			}
			r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

			w := doJSON(t, r, http.MethodGet, "/crops/anything", "")
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d; want %d", w.Code, tc.wantCode)
			}
			if e := decodeErr(t, w); e.Code != tc.wantErr {
				t.Fatalf("error code = %q; want %q", e.Code, tc.wantErr)
			}
		})
	}
}

func TestGetCrop_OK(t *testing.T) {
	id := primitive.NewObjectID()
	crop := &stubCropSvc{
		getFn: func(_ context.Context, hex string) (*domain.Crop, error) {
			if hex != id.Hex() {
				t.Fatalf("id not forwarded: %q", hex)
			}
			return &domain.Crop{ID: id, Name: "Maize"}, nil
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodGet, "/crops/"+id.Hex(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got domain.Crop
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.Name != "Maize" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestMyCrops_OK_ForwardsEmail(t *testing.T) {
	var gotEmail string
	crop := &stubCropSvc{
		byOwnerFn: func(_ context.Context, email string) ([]domain.Crop, error) {
			gotEmail = email
			return []domain.Crop{}, nil
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodGet, "/my-crops/farmer@example.com", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotEmail != "farmer@example.com" {
		t.Fatalf("email not forwarded: %q", gotEmail)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty listing should encode as []: %q", w.Body.String())
	}
}

func TestCreateCrop_InvalidJSON_400(t *testing.T) {
	r := newTestRouter(&stubCropSvc{}, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodPost, "/crops", "{not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeBadRequest {
		t.Fatalf("error code = %q", e.Code)
	}
}

func TestCreateCrop_OK_201WithID(t *testing.T) {
	var gotPayload bson.M
	crop := &stubCropSvc{
		createFn: func(_ context.Context, payload bson.M) (string, error) {
			gotPayload = payload
			return "66b1f8c2a4d3e5f6a7b8c9d0", nil
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodPost, "/crops", `{"name":"Rice","customTag":"opaque"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var ack AckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("invalid ack: %v", err)
	}
	if !ack.Acknowledged || ack.ID != "66b1f8c2a4d3e5f6a7b8c9d0" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if gotPayload["name"] != "Rice" || gotPayload["customTag"] != "opaque" {
		t.Fatalf("payload not forwarded verbatim: %v", gotPayload)
	}
}

func TestCreateCrop_ServiceError_500(t *testing.T) {
	crop := &stubCropSvc{
		createFn: func(_ context.Context, _ bson.M) (string, error) {
			return "", errors.New("insert failed")
		},
	}
	r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})

	w := doJSON(t, r, http.MethodPost, "/crops", `{"name":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decodeErr(t, w); e.Code != ErrCodeCreateFailed {
		t.Fatalf("error code = %q", e.Code)
	}
}

func TestUpdateCrop_StatusMapping(t *testing.T) {
	t.Run("invalid body", func(t *testing.T) {
		r := newTestRouter(&stubCropSvc{}, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodPut, "/crops/abc", "oops")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		crop := &stubCropSvc{
			updateFn: func(_ context.Context, _ string, _ bson.M) error {
				return services.ErrInvalidID
			},
		}
		r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodPut, "/crops/zzz", `{"price":2}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("ok even when nothing matched", func(t *testing.T) {
		crop := &stubCropSvc{
			updateFn: func(_ context.Context, id string, payload bson.M) error {
				if id == "" || payload["price"] != 2.0 {
					t.Fatalf("args not forwarded: id=%q payload=%v", id, payload)
				}
				return nil
			},
		}
		r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodPut, "/crops/"+primitive.NewObjectID().Hex(), `{"price":2}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var ack AckResponse
		if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil || !ack.Acknowledged || ack.ID != "" {
			t.Fatalf("unexpected ack: %s", w.Body.String())
		}
	})
}

func TestDeleteCrop_StatusMapping(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		crop := &stubCropSvc{
			deleteFn: func(_ context.Context, _ string) error { return services.ErrInvalidID },
		}
		r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodDelete, "/crops/zzz", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("ok", func(t *testing.T) {
		crop := &stubCropSvc{
			deleteFn: func(_ context.Context, _ string) error { return nil },
		}
		r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodDelete, "/crops/"+primitive.NewObjectID().Hex(), "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("internal", func(t *testing.T) {
		crop := &stubCropSvc{
			deleteFn: func(_ context.Context, _ string) error { return errors.New("boom") },
		}
		r := newTestRouter(crop, &stubInterestSvc{}, &stubUserSvc{})
		w := doJSON(t, r, http.MethodDelete, "/crops/"+primitive.NewObjectID().Hex(), "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
		if e := decodeErr(t, w); e.Code != ErrCodeDeleteFailed {
			t.Fatalf("error code = %q", e.Code)
		}
	})
}
