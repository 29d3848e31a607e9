package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	current Settings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{current: defaults()}
}

func defaults() Settings {
	return Settings{
		SalonName:    "Beauty Salon",
		Currency:     "VND",
		OpeningHours: "09:00-20:00",
		UpdatedAt:    time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) Get(ctx context.Context) (Settings, error) {
	return f.current, nil
}

func (f *fakeRepo) Update(ctx context.Context, in Input) (Settings, error) {
	f.current = Settings{
		SalonName:    in.SalonName,
		Address:      in.Address,
		Phone:        in.Phone,
		Email:        in.Email,
		Currency:     in.Currency,
		OpeningHours: in.OpeningHours,
		UpdatedAt:    time.Now(),
	}
	return f.current, nil
}

func (f *fakeRepo) Reset(ctx context.Context) (Settings, error) {
	f.current = defaults()
	return f.current, nil
}

func newRouter(repo Repo) http.Handler {
	h := &Handler{Store: repo, Validate: validator.New()}
	r := chi.NewRouter()
	r.Get("/settings", h.Get)
	r.Put("/settings", h.Update)
	r.Post("/settings/reset", h.Reset)
	return r
}

func TestGetSettings(t *testing.T) {
	router := newRouter(newFakeRepo())

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Data Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "Beauty Salon", got.Data.SalonName)
	require.Equal(t, "VND", got.Data.Currency)
}

func TestUpdateSettingsValidation(t *testing.T) {
	router := newRouter(newFakeRepo())

	// Currency must be a three-letter code.
	body := bytes.NewBufferString(`{"salonName":"Lotus Spa","currency":"DONG"}`)
	req := httptest.NewRequest(http.MethodPut, "/settings", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION")
}

func TestUpdateAndResetSettings(t *testing.T) {
	repo := newFakeRepo()
	router := newRouter(repo)

	body := bytes.NewBufferString(`{"salonName":"Lotus Spa","currency":"USD","openingHours":"08:00-18:00"}`)
	req := httptest.NewRequest(http.MethodPut, "/settings", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated struct {
		Data Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, "Lotus Spa", updated.Data.SalonName)
	require.Equal(t, "USD", updated.Data.Currency)

	req = httptest.NewRequest(http.MethodPost, "/settings/reset", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var reset struct {
		Data Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reset))
	require.Equal(t, "Beauty Salon", reset.Data.SalonName)
	require.Equal(t, "VND", reset.Data.Currency)
	require.Equal(t, "09:00-20:00", reset.Data.OpeningHours)
}
