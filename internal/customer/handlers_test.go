package customer

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
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	customers map[uuid.UUID]Customer
	visits    []Visit
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: map[uuid.UUID]Customer{}}
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error) {
	out := []Customer{}
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) ListByBirthdayMonth(ctx context.Context, month int) ([]Customer, error) {
	out := []Customer{}
	for _, c := range f.customers {
		if c.Birthday != nil && int(c.Birthday.Month()) == month {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, in Input) (Customer, error) {
	c := Customer{ID: uuid.New(), Name: in.Name, Phone: in.Phone, Email: in.Email, Birthday: in.Birthday}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeRepo) Update(ctx context.Context, id uuid.UUID, in Input) (Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	c.Name, c.Phone, c.Email, c.Birthday = in.Name, in.Phone, in.Email, in.Birthday
	f.customers[id] = c
	return c, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.customers[id]; !ok {
		return ErrNotFound
	}
	delete(f.customers, id)
	return nil
}

func (f *fakeRepo) History(ctx context.Context, id uuid.UUID, limit int) ([]Visit, error) {
	if _, ok := f.customers[id]; !ok {
		return nil, ErrNotFound
	}
	return f.visits, nil
}

func newRouter(repo Repo) http.Handler {
	h := &Handler{Store: repo, Validate: validator.New(), DefaultLimit: 20}
	r := chi.NewRouter()
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/birthdays/{month}", h.Birthdays)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/history", h.History)
		})
	})
	return r
}

func TestCreateCustomerValidation(t *testing.T) {
	router := newRouter(newFakeRepo())

	body := bytes.NewBufferString(`{"phone":"0901234567"}`)
	req := httptest.NewRequest(http.MethodPost, "/customers", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCustomerLifecycle(t *testing.T) {
	repo := newFakeRepo()
	router := newRouter(repo)

	body := bytes.NewBufferString(`{"name":"Ngoc Anh","phone":"0901234567","email":"na@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/customers", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created struct {
		Data Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "Ngoc Anh", created.Data.Name)

	req = httptest.NewRequest(http.MethodGet, "/customers/"+created.Data.ID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/customers/"+created.Data.ID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/customers/"+created.Data.ID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBirthdaysMonthBounds(t *testing.T) {
	repo := newFakeRepo()
	bd := time.Date(1995, time.March, 8, 0, 0, 0, 0, time.UTC)
	repo.customers[uuid.New()] = Customer{ID: uuid.New(), Name: "Mai", Birthday: &bd}
	router := newRouter(repo)

	for _, bad := range []string{"0", "13", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/customers/birthdays/"+bad, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code, "month %q", bad)
	}

	req := httptest.NewRequest(http.MethodGet, "/customers/birthdays/3", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data []Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
}

func TestHistoryUnknownCustomer(t *testing.T) {
	router := newRouter(newFakeRepo())
	req := httptest.NewRequest(http.MethodGet, "/customers/"+uuid.NewString()+"/history", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
