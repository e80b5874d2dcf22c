package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmarket/commission-service/internal/inventory"
	"github.com/artmarket/commission-service/internal/ledger"
	"github.com/artmarket/commission-service/internal/order"
)

type mockRepository struct {
	createFunc       func(ctx context.Context, o *order.Order) error
	getByIDFunc      func(ctx context.Context, id string) (*order.Order, error)
	updateFunc       func(ctx context.Context, o *order.Order) error
	listByArtistFunc func(ctx context.Context, artistID string) ([]order.Order, error)
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockRepository) Update(ctx context.Context, o *order.Order) error {
	return m.updateFunc(ctx, o)
}

func (m *mockRepository) ListByArtist(ctx context.Context, artistID string) ([]order.Order, error) {
	return m.listByArtistFunc(ctx, artistID)
}

type mockIncomeRecorder struct {
	calls  []ledger.OrderIncome
	result *ledger.Result
	err    error
}

func (m *mockIncomeRecorder) RecordOrderIncome(ctx context.Context, income ledger.OrderIncome) (*ledger.Result, error) {
	m.calls = append(m.calls, income)
	return m.result, m.err
}

type mockStockAdjuster struct {
	decreaseFunc func(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error)
	increased    map[string]int
	increaseErr  error
}

func (m *mockStockAdjuster) DecreaseStock(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error) {
	return m.decreaseFunc(ctx, productID, quantity)
}

func (m *mockStockAdjuster) IncreaseStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if m.increaseErr != nil {
		return false, m.increaseErr
	}
	if m.increased == nil {
		m.increased = make(map[string]int)
	}
	m.increased[productID] += quantity
	return true, nil
}

func stockAlwaysAvailable() *mockStockAdjuster {
	return &mockStockAdjuster{
		decreaseFunc: func(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error) {
			remaining := 5
			return &inventory.StockResult{Success: true, Remaining: &remaining}, nil
		},
	}
}

func TestService_CreateOrder(t *testing.T) {
	tests := []struct {
		name         string
		order        order.Order
		decreaseFunc func(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error)
		createFunc   func(ctx context.Context, o *order.Order) error
		wantErr      error
	}{
		{
			name:    "zero_quantity_rejected",
			order:   order.Order{BuyerID: "b1", ArtistID: "a1", Quantity: 0},
			wantErr: order.ErrInvalidQuantity,
		},
		{
			name:    "negative_price_rejected",
			order:   order.Order{BuyerID: "b1", ArtistID: "a1", Quantity: 1, Price: -5},
			wantErr: order.ErrNegativePrice,
		},
		{
			name:  "out_of_stock",
			order: order.Order{BuyerID: "b1", ArtistID: "a1", ProductID: "p1", Quantity: 3},
			decreaseFunc: func(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error) {
				remaining := 1
				return &inventory.StockResult{Success: false, Remaining: &remaining}, nil
			},
			wantErr: order.ErrOutOfStock,
		},
		{
			name:  "duplicate_id",
			order: order.Order{ID: "O1", BuyerID: "b1", ArtistID: "a1", Quantity: 1},
			createFunc: func(ctx context.Context, o *order.Order) error {
				return order.ErrDuplicateOrderID
			},
			wantErr: order.ErrDuplicateOrderID,
		},
		{
			name:  "success",
			order: order.Order{ID: "O1", BuyerID: "b1", ArtistID: "a1", ProductID: "p1", Quantity: 2, Price: 30},
			decreaseFunc: func(ctx context.Context, productID string, quantity int) (*inventory.StockResult, error) {
				remaining := 8
				return &inventory.StockResult{Success: true, Remaining: &remaining}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createFunc := tt.createFunc
			if createFunc == nil {
				createFunc = func(ctx context.Context, o *order.Order) error { return nil }
			}
			repo := &mockRepository{createFunc: createFunc}

			stock := stockAlwaysAvailable()
			if tt.decreaseFunc != nil {
				stock.decreaseFunc = tt.decreaseFunc
			}

			svc := order.NewService(repo, &mockIncomeRecorder{}, stock)

			created, err := svc.CreateOrder(context.Background(), &tt.order)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, order.StatusUnpaid, created.Status)
			assert.NotEmpty(t, created.ID)
			assert.Nil(t, created.CompletedAt)
		})
	}
}

func TestService_CreateOrder_GeneratesID(t *testing.T) {
	repo := &mockRepository{createFunc: func(ctx context.Context, o *order.Order) error { return nil }}
	svc := order.NewService(repo, &mockIncomeRecorder{}, stockAlwaysAvailable())

	created, err := svc.CreateOrder(context.Background(), &order.Order{BuyerID: "b1", ArtistID: "a1", Quantity: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestService_UpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    order.Status
		next       order.Status
		wantErr    error
		wantUpdate bool
	}{
		{"unpaid_to_in_progress", order.StatusUnpaid, order.StatusInProgress, nil, true},
		{"in_progress_to_waiting_confirm", order.StatusInProgress, order.StatusWaitingConfirm, nil, true},
		{"waiting_confirm_to_completed", order.StatusWaitingConfirm, order.StatusCompleted, nil, true},
		{"unpaid_to_cancelled", order.StatusUnpaid, order.StatusCancelled, nil, true},
		{"in_progress_to_refunded", order.StatusInProgress, order.StatusRefunded, nil, true},
		{"completed_is_terminal", order.StatusCompleted, order.StatusRefunded, order.ErrInvalidStatusTransition, false},
		{"cancelled_is_terminal", order.StatusCancelled, order.StatusInProgress, order.ErrInvalidStatusTransition, false},
		{"no_downgrade_from_waiting_confirm", order.StatusWaitingConfirm, order.StatusInProgress, order.ErrInvalidStatusTransition, false},
		{"same_status_is_a_noop", order.StatusInProgress, order.StatusInProgress, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			repo := &mockRepository{
				getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
					return &order.Order{ID: id, Status: tt.current}, nil
				},
				updateFunc: func(ctx context.Context, o *order.Order) error {
					updated = true
					if tt.next == order.StatusCompleted {
						assert.NotNil(t, o.CompletedAt, "completedAt must be set with completion")
					} else {
						assert.Nil(t, o.CompletedAt)
					}
					return nil
				},
			}
			svc := order.NewService(repo, &mockIncomeRecorder{}, stockAlwaysAvailable())

			err := svc.UpdateOrderStatus(context.Background(), "O1", tt.next)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantUpdate, updated)
		})
	}
}

func TestService_UpdateOrderStatus_CompletedRecordsIncome(t *testing.T) {
	var stored *order.Order
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
			return &order.Order{ID: id, Status: order.StatusWaitingConfirm, ServiceID: "S1", Price: 50}, nil
		},
		updateFunc: func(ctx context.Context, o *order.Order) error {
			stored = o
			return nil
		},
	}
	recorder := &mockIncomeRecorder{result: &ledger.Result{Outcome: ledger.OutcomeRecorded}}
	svc := order.NewService(repo, recorder, stockAlwaysAvailable())

	require.NoError(t, svc.UpdateOrderStatus(context.Background(), "O1", order.StatusCompleted))

	require.NotNil(t, stored)
	assert.Equal(t, order.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	require.Len(t, recorder.calls, 1, "completing via the status endpoint must record income")
	assert.Equal(t, "O1", recorder.calls[0].OrderID)
}

func TestService_CompleteOrder(t *testing.T) {
	completedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("transitions_and_records_income", func(t *testing.T) {
		var stored *order.Order
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusWaitingConfirm, ServiceID: "S1", Price: 50}, nil
			},
			updateFunc: func(ctx context.Context, o *order.Order) error {
				stored = o
				return nil
			},
		}
		recorder := &mockIncomeRecorder{result: &ledger.Result{Outcome: ledger.OutcomeRecorded, Appended: 2}}
		svc := order.NewService(repo, recorder, stockAlwaysAvailable())

		result, err := svc.CompleteOrder(context.Background(), "O1")
		require.NoError(t, err)
		assert.Equal(t, ledger.OutcomeRecorded, result.Outcome)

		require.NotNil(t, stored)
		assert.Equal(t, order.StatusCompleted, stored.Status)
		assert.NotNil(t, stored.CompletedAt)

		require.Len(t, recorder.calls, 1)
		assert.Equal(t, "O1", recorder.calls[0].OrderID)
		assert.Equal(t, "S1", recorder.calls[0].ServiceID)
		assert.Equal(t, 50.0, recorder.calls[0].Price)
	})

	t.Run("replay_on_completed_order_only_reruns_ledger", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusCompleted, CompletedAt: &completedAt, Price: 50}, nil
			},
			updateFunc: func(ctx context.Context, o *order.Order) error {
				t.Fatal("a completed order must not be updated again")
				return nil
			},
		}
		recorder := &mockIncomeRecorder{result: &ledger.Result{Outcome: ledger.OutcomeAlreadyRecorded}}
		svc := order.NewService(repo, recorder, stockAlwaysAvailable())

		result, err := svc.CompleteOrder(context.Background(), "O1")
		require.NoError(t, err)
		assert.Equal(t, ledger.OutcomeAlreadyRecorded, result.Outcome)

		require.Len(t, recorder.calls, 1)
		assert.True(t, completedAt.Equal(recorder.calls[0].CompletedAt), "replay must carry the original completion time")
	})

	t.Run("unpaid_order_cannot_complete", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusUnpaid}, nil
			},
		}
		recorder := &mockIncomeRecorder{}
		svc := order.NewService(repo, recorder, stockAlwaysAvailable())

		_, err := svc.CompleteOrder(context.Background(), "O1")
		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
		assert.Empty(t, recorder.calls, "no income recorded for an invalid transition")
	})

	t.Run("ledger_failure_is_retryable", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusInProgress, Price: 50}, nil
			},
			updateFunc: func(ctx context.Context, o *order.Order) error { return nil },
		}
		recorder := &mockIncomeRecorder{err: errors.New("ledger store down")}
		svc := order.NewService(repo, recorder, stockAlwaysAvailable())

		_, err := svc.CompleteOrder(context.Background(), "O1")
		require.Error(t, err)
	})
}

func TestService_RefundOrder(t *testing.T) {
	t.Run("restocks_product", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusInProgress, ProductID: "p1", Quantity: 2}, nil
			},
			updateFunc: func(ctx context.Context, o *order.Order) error {
				assert.Equal(t, order.StatusRefunded, o.Status)
				return nil
			},
		}
		stock := stockAlwaysAvailable()
		svc := order.NewService(repo, &mockIncomeRecorder{}, stock)

		require.NoError(t, svc.RefundOrder(context.Background(), "O1"))
		assert.Equal(t, 2, stock.increased["p1"])
	})

	t.Run("replayed_refund_does_not_restock_twice", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusRefunded, ProductID: "p1", Quantity: 2}, nil
			},
		}
		stock := stockAlwaysAvailable()
		svc := order.NewService(repo, &mockIncomeRecorder{}, stock)

		require.NoError(t, svc.RefundOrder(context.Background(), "O1"))
		assert.Empty(t, stock.increased)
	})

	t.Run("completed_order_cannot_refund", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusCompleted}, nil
			},
		}
		svc := order.NewService(repo, &mockIncomeRecorder{}, stockAlwaysAvailable())

		err := svc.RefundOrder(context.Background(), "O1")
		assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
	})

	t.Run("restock_failure_does_not_fail_refund", func(t *testing.T) {
		repo := &mockRepository{
			getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
				return &order.Order{ID: id, Status: order.StatusInProgress, ProductID: "p1", Quantity: 1}, nil
			},
			updateFunc: func(ctx context.Context, o *order.Order) error { return nil },
		}
		stock := stockAlwaysAvailable()
		stock.increaseErr = errors.New("catalog store down")
		svc := order.NewService(repo, &mockIncomeRecorder{}, stock)

		assert.NoError(t, svc.RefundOrder(context.Background(), "O1"))
	})
}

func TestService_GetOrder(t *testing.T) {
	deadline := time.Now().UTC().Add(6 * time.Hour)
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id string) (*order.Order, error) {
			if id != "O1" {
				return nil, order.ErrOrderNotFound
			}
			return &order.Order{
				ID:        id,
				Status:    order.StatusInProgress,
				CreatedAt: time.Now().UTC().Add(-18 * time.Hour),
				Deadline:  deadline,
			}, nil
		},
	}
	svc := order.NewService(repo, &mockIncomeRecorder{}, stockAlwaysAvailable())

	view, err := svc.GetOrder(context.Background(), "O1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusNearDeadline, view.Status.Status)
	assert.True(t, view.Status.Urgent)
	assert.Equal(t, order.VisualNearDeadline, view.Visual.StatusKey)

	_, err = svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
