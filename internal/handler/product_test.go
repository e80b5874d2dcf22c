package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/artmarket/commission-service/internal/handler"
	"github.com/artmarket/commission-service/internal/inventory"
)

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) DecreaseStock(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error) {
	args := m.Called(ctx, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockResult), args.Error(1)
}

func (m *MockInventoryService) IncreaseStock(ctx context.Context, productID string, quantity int) (bool, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryService) GetProduct(ctx context.Context, productID string) (*inventory.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockInventoryService) SaveProduct(ctx context.Context, p *inventory.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func newProductRouter(svc inventory.Service) *chi.Mux {
	router := chi.NewRouter()
	handler.NewProductHandler(svc).RegisterRoutes(router)
	return router
}

func TestProductHandler_Upsert_ZeroStockMeansUnlimited(t *testing.T) {
	mockService := new(MockInventoryService)
	mockService.On("SaveProduct", mock.Anything, mock.MatchedBy(func(p *inventory.Product) bool {
		return p.ID == "p1" && p.Stock == nil
	})).Return(nil)

	body, _ := json.Marshal(map[string]any{"id": "p1", "name": "poster print", "stock": 0})
	req := httptest.NewRequest(http.MethodPut, "/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	newProductRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_Upsert_TrackedStockKept(t *testing.T) {
	mockService := new(MockInventoryService)
	mockService.On("SaveProduct", mock.Anything, mock.MatchedBy(func(p *inventory.Product) bool {
		return p.ID == "p2" && p.Stock != nil && *p.Stock == 7
	})).Return(nil)

	body, _ := json.Marshal(map[string]any{"id": "p2", "name": "sticker pack", "stock": 7})
	req := httptest.NewRequest(http.MethodPut, "/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	newProductRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_Upsert_ValidationFailure(t *testing.T) {
	mockService := new(MockInventoryService)

	body, _ := json.Marshal(map[string]any{"name": "no id"})
	req := httptest.NewRequest(http.MethodPut, "/products", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	newProductRouter(mockService).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp handler.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "ID")
	mockService.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything)
}

func TestProductHandler_GetProduct_NotFound(t *testing.T) {
	mockService := new(MockInventoryService)
	mockService.On("GetProduct", mock.Anything, "missing").Return(nil, inventory.ErrProductNotFound)

	req := httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	rr := httptest.NewRecorder()

	newProductRouter(mockService).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}
