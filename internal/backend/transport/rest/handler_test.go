package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProductService struct {
	findAll  func(category string, offset, limit int) ([]service.ProductDto, error)
	findByID func(id int64) (*service.ProductDto, error)
	create   func(dto service.ProductCreateDto) (*service.ProductDto, error)
	update   func(dto service.ProductDto) (*service.ProductDto, error)
	delete   func(id int64) error
}

func (m *mockProductService) FindByID(_ context.Context, id int64) (*service.ProductDto, error) {
	return m.findByID(id)
}

func (m *mockProductService) FindAll(_ context.Context, category string, offset, limit int) ([]service.ProductDto, error) {
	return m.findAll(category, offset, limit)
}

func (m *mockProductService) Create(_ context.Context, dto service.ProductCreateDto) (*service.ProductDto, error) {
	return m.create(dto)
}

func (m *mockProductService) Update(_ context.Context, dto service.ProductDto) (*service.ProductDto, error) {
	return m.update(dto)
}

func (m *mockProductService) DeleteByID(_ context.Context, id int64) error {
	return m.delete(id)
}

func (m *mockProductService) Seed(context.Context, []service.ProductCreateDto) (int, error) {
	return 0, nil
}

type mockUserService struct {
	create   func(dto service.UserCreateDto) (*service.UserDto, error)
	findByID func(id int64) (*service.UserDto, error)
}

func (m *mockUserService) FindByID(_ context.Context, id int64) (*service.UserDto, error) {
	return m.findByID(id)
}

func (m *mockUserService) FindAll(context.Context, int, int) ([]service.UserDto, error) {
	return []service.UserDto{}, nil
}

func (m *mockUserService) Create(_ context.Context, dto service.UserCreateDto) (*service.UserDto, error) {
	return m.create(dto)
}

func (m *mockUserService) Update(context.Context, service.UserDto) (*service.UserDto, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) DeleteByID(context.Context, int64) error {
	return nil
}

type mockOrderService struct {
	findAll func(userID int64, offset, limit int) ([]service.OrderDto, error)
	create  func(dto service.OrderCreateDto) (*service.OrderDto, error)
	update  func(dto service.OrderUpdateDto) (*service.OrderDto, error)
	delete  func(id int64) error
}

func (m *mockOrderService) FindByID(context.Context, int64) (*service.OrderDto, error) {
	return nil, berrors.ErrOrderNotFound
}

func (m *mockOrderService) FindAll(_ context.Context, userID int64, offset, limit int) ([]service.OrderDto, error) {
	return m.findAll(userID, offset, limit)
}

func (m *mockOrderService) Create(_ context.Context, dto service.OrderCreateDto) (*service.OrderDto, error) {
	return m.create(dto)
}

func (m *mockOrderService) Update(_ context.Context, dto service.OrderUpdateDto) (*service.OrderDto, error) {
	return m.update(dto)
}

func (m *mockOrderService) DeleteByID(_ context.Context, id int64) error {
	return m.delete(id)
}

func newTestRouter(p *mockProductService, u *mockUserService, o *mockOrderService) *chi.Mux {
	if p == nil {
		p = &mockProductService{}
	}
	if u == nil {
		u = &mockUserService{}
	}
	if o == nil {
		o = &mockOrderService{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(p, u, o, service.NewValidator(), logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_FindProducts(t *testing.T) {
	sample := []service.ProductDto{{ID: 1, Name: "Classic White Shirt", Price: decimal.RequireFromString("49.99"), Discount: 20, Category: "Men", Version: 1}}

	testCases := []struct {
		name             string
		target           string
		serviceErr       error
		expectedStatus   int
		expectedCategory string
		expectedBody     string
	}{
		{name: "Success", target: "/api/v1/products?limit=10&offset=0", expectedStatus: http.StatusOK},
		{name: "Success - All maps to no filter", target: "/api/v1/products?limit=10&offset=0&category=All", expectedStatus: http.StatusOK},
		{name: "Success - category", target: "/api/v1/products?limit=10&offset=0&category=Men", expectedStatus: http.StatusOK, expectedCategory: "Men"},
		{name: "Error - missing limit", target: "/api/v1/products?offset=0", expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"limit url parameter is required"}`},
		{name: "Error - limit too large", target: "/api/v1/products?limit=5000&offset=0", expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"Invalid limit number: 5000"}`},
		{name: "Error - negative offset", target: "/api/v1/products?limit=10&offset=-1", expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"Invalid offset number: -1"}`},
		{name: "Error - unknown category", target: "/api/v1/products?limit=10&offset=0&category=Pets", serviceErr: berrors.ErrInvalidInput, expectedStatus: http.StatusBadRequest},
		{name: "Error - store failure", target: "/api/v1/products?limit=10&offset=0", serviceErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError, expectedBody: `{"error":"Failed to fetch products"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var gotCategory string
			p := &mockProductService{findAll: func(category string, offset, limit int) ([]service.ProductDto, error) {
				gotCategory = category
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				return sample, nil
			}}
			r := newTestRouter(p, nil, nil)

			// when
			rr := serve(r, http.MethodGet, tc.target, "")

			// then
			require.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, tc.expectedCategory, gotCategory)
				assert.JSONEq(t, `[{"id":1,"name":"Classic White Shirt","price":"49.99","discount":20,"category":"Men","version":1}]`, rr.Body.String())
			}
		})
	}
}

func TestHandler_FindProductByID(t *testing.T) {
	testCases := []struct {
		name           string
		target         string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "Success", target: "/api/v1/products/3", expectedStatus: http.StatusOK},
		{name: "Error - not found", target: "/api/v1/products/9", serviceErr: fmt.Errorf("wrapped: %w", berrors.ErrProductNotFound), expectedStatus: http.StatusNotFound, expectedBody: `{"error":"Product with ID 9 not found"}`},
		{name: "Error - invalid id", target: "/api/v1/products/abc", expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"Invalid ID: abc"}`},
		{name: "Error - zero id", target: "/api/v1/products/0", expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"Invalid ID: 0"}`},
		{name: "Error - internal", target: "/api/v1/products/3", serviceErr: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedBody: `{"error":"Failed to retrieve Product with ID 3"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			p := &mockProductService{findByID: func(id int64) (*service.ProductDto, error) {
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				return &service.ProductDto{ID: id, Name: "Leather Jacket", Price: decimal.RequireFromString("199.99"), Category: "Men", Version: 1}, nil
			}}
			r := newTestRouter(p, nil, nil)

			// when
			rr := serve(r, http.MethodGet, tc.target, "")

			// then
			require.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandler_CreateProduct(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			body:           `{"name":"Silk Scarf","price":"25.00","discount":5,"category":"Accessories"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Success - numeric price",
			body:           `{"name":"Silk Scarf","price":25,"category":"Accessories"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Error - invalid json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body"}`,
		},
		{
			name:           "Error - validation",
			body:           `{"name":"","price":"-1","discount":120,"category":"Pets"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{
				"Name":"failed on rule: required",
				"Price":"failed on rule: gte",
				"Discount":"failed on rule: max",
				"Category":"failed on rule: oneof"}}`,
		},
		{
			name:           "Error - bad image url",
			body:           `{"name":"Silk Scarf","price":"25","category":"Accessories","image":"not a url"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"validation_errors":{"Image":"failed on rule: url"}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			p := &mockProductService{create: func(dto service.ProductCreateDto) (*service.ProductDto, error) {
				return &service.ProductDto{ID: 7, Name: dto.Name, Price: dto.Price, Discount: dto.Discount, Category: dto.Category, Version: 1}, nil
			}}
			r := newTestRouter(p, nil, nil)

			// when
			rr := serve(r, http.MethodPost, "/api/v1/products", tc.body)

			// then
			require.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
			if tc.expectedStatus == http.StatusCreated {
				var created service.ProductDto
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
				assert.Equal(t, int64(7), created.ID)
				assert.Equal(t, "25", created.Price.String())
			}
		})
	}
}

func TestHandler_UpdateProduct(t *testing.T) {
	testCases := []struct {
		name           string
		serviceErr     error
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "Success", body: `{"name":"Oxford","price":"55","category":"Men","version":1}`, expectedStatus: http.StatusOK},
		{name: "Error - missing version", body: `{"name":"Oxford","price":"55","category":"Men"}`, expectedStatus: http.StatusBadRequest, expectedBody: `{"validation_errors":{"Version":"failed on rule: required"}}`},
		{name: "Error - conflict", serviceErr: berrors.ErrOptimisticLock, body: `{"name":"Oxford","price":"55","category":"Men","version":1}`, expectedStatus: http.StatusConflict, expectedBody: `{"error":"Product with ID 4 was modified concurrently"}`},
		{name: "Error - not found", serviceErr: berrors.ErrProductNotFound, body: `{"name":"Oxford","price":"55","category":"Men","version":1}`, expectedStatus: http.StatusNotFound, expectedBody: `{"error":"Product with ID 4 not found"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var gotID int64
			p := &mockProductService{update: func(dto service.ProductDto) (*service.ProductDto, error) {
				gotID = dto.ID
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				dto.Version++
				return &dto, nil
			}}
			r := newTestRouter(p, nil, nil)

			// when
			rr := serve(r, http.MethodPut, "/api/v1/products/4", tc.body)

			// then
			require.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, int64(4), gotID)
				assert.Contains(t, rr.Body.String(), `"version":2`)
			}
		})
	}
}

func TestHandler_DeleteProduct(t *testing.T) {
	testCases := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusNoContent},
		{name: "Error - not found", serviceErr: berrors.ErrProductNotFound, expectedStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			p := &mockProductService{delete: func(int64) error { return tc.serviceErr }}
			r := newTestRouter(p, nil, nil)

			// when
			rr := serve(r, http.MethodDelete, "/api/v1/products/2", "")

			// then
			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestHandler_CreateUser(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "Success", body: `{"name":"Ada","email":"ada@example.com"}`, expectedStatus: http.StatusCreated},
		{name: "Error - invalid email", body: `{"name":"Ada","email":"nope"}`, expectedStatus: http.StatusBadRequest, expectedBody: `{"validation_errors":{"Email":"failed on rule: email"}}`},
		{name: "Error - email taken", body: `{"name":"Ada","email":"ada@example.com"}`, serviceErr: berrors.ErrEmailTaken, expectedStatus: http.StatusConflict, expectedBody: `{"error":"Email already registered"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			u := &mockUserService{create: func(dto service.UserCreateDto) (*service.UserDto, error) {
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				return &service.UserDto{ID: 1, Name: dto.Name, Email: dto.Email, Version: 1}, nil
			}}
			r := newTestRouter(nil, u, nil)

			// when
			rr := serve(r, http.MethodPost, "/api/v1/users", tc.body)

			// then
			require.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandler_FindUserByID_NotFound(t *testing.T) {
	// given
	u := &mockUserService{findByID: func(int64) (*service.UserDto, error) { return nil, berrors.ErrUserNotFound }}
	r := newTestRouter(nil, u, nil)

	// when
	rr := serve(r, http.MethodGet, "/api/v1/users/5", "")

	// then
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"User with ID 5 not found"}`, rr.Body.String())
}

func TestHandler_CreateOrder(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "Success", body: `{"user_id":1,"items":[{"product_id":1,"quantity":2}]}`, expectedStatus: http.StatusCreated},
		{name: "Error - no items", body: `{"user_id":1,"items":[]}`, expectedStatus: http.StatusBadRequest, expectedBody: `{"validation_errors":{"Items":"failed on rule: gt"}}`},
		{name: "Error - zero quantity", body: `{"user_id":1,"items":[{"product_id":1,"quantity":0}]}`, expectedStatus: http.StatusBadRequest, expectedBody: `{"validation_errors":{"Quantity":"failed on rule: required"}}`},
		{name: "Error - unknown product", body: `{"user_id":1,"items":[{"product_id":9,"quantity":1}]}`, serviceErr: berrors.ErrProductNotFound, expectedStatus: http.StatusNotFound, expectedBody: `{"error":"Referenced product not found"}`},
		{name: "Error - unknown user", body: `{"user_id":4,"items":[{"product_id":1,"quantity":1}]}`, serviceErr: berrors.ErrUserNotFound, expectedStatus: http.StatusNotFound, expectedBody: `{"error":"Referenced user not found"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			o := &mockOrderService{create: func(dto service.OrderCreateDto) (*service.OrderDto, error) {
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				return &service.OrderDto{ID: 1, UserID: dto.UserID, Status: service.StatusPending, Total: decimal.RequireFromString("99.98"), Version: 1}, nil
			}}
			r := newTestRouter(nil, nil, o)

			// when
			rr := serve(r, http.MethodPost, "/api/v1/orders", tc.body)

			// then
			require.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandler_FindOrders(t *testing.T) {
	testCases := []struct {
		name           string
		target         string
		expectedStatus int
		expectedUser   int64
	}{
		{name: "all orders", target: "/api/v1/orders?limit=5&offset=0", expectedStatus: http.StatusOK},
		{name: "user orders", target: "/api/v1/orders?limit=5&offset=0&user_id=3", expectedStatus: http.StatusOK, expectedUser: 3},
		{name: "invalid user", target: "/api/v1/orders?limit=5&offset=0&user_id=0", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var gotUser int64
			o := &mockOrderService{findAll: func(userID int64, _, _ int) ([]service.OrderDto, error) {
				gotUser = userID
				return []service.OrderDto{}, nil
			}}
			r := newTestRouter(nil, nil, o)

			// when
			rr := serve(r, http.MethodGet, tc.target, "")

			// then
			require.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedUser, gotUser)
		})
	}
}

func TestHandler_UpdateOrder(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{name: "Success", body: `{"status":"paid","version":1}`, expectedStatus: http.StatusOK},
		{name: "Error - unknown status", body: `{"status":"lost","version":1}`, expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			o := &mockOrderService{update: func(dto service.OrderUpdateDto) (*service.OrderDto, error) {
				return &service.OrderDto{ID: dto.ID, Status: dto.Status, Version: dto.Version + 1}, nil
			}}
			r := newTestRouter(nil, nil, o)

			// when
			rr := serve(r, http.MethodPut, "/api/v1/orders/8", tc.body)

			// then
			assert.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestHandler_DeleteOrder(t *testing.T) {
	testCases := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "Success", expectedStatus: http.StatusNoContent},
		{name: "Error - not found", serviceErr: berrors.ErrOrderNotFound, expectedStatus: http.StatusNotFound, expectedBody: "Order with ID 8 not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var gotID int64
			o := &mockOrderService{delete: func(id int64) error {
				gotID = id
				return tc.serviceErr
			}}
			r := newTestRouter(nil, nil, o)

			// when
			rr := serve(r, http.MethodDelete, "/api/v1/orders/8", "")

			// then
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, int64(8), gotID)
			assert.Contains(t, rr.Body.String(), tc.expectedBody)
		})
	}
}

func TestHandler_HealthCheck(t *testing.T) {
	r := newTestRouter(nil, nil, nil)
	rr := serve(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
