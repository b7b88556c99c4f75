package api

import (
	"context"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/order"
	"warehouse-be/internal/user"
	"warehouse-be/internal/utils"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (user.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, accessToken string) (utils.Identity, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(utils.Identity), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context) (user.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(user.User), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) result(args mock.Arguments) (*order.Order, error) {
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, in order.CreateOrderInput) (*order.Order, error) {
	return m.result(m.Called(ctx, in))
}

func (m *MockOrderService) Get(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) Events(ctx context.Context, id int64) ([]order.Event, error) {
	args := m.Called(ctx, id)
	if ev := args.Get(0); ev != nil {
		return ev.([]order.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderService) Reserve(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) RetryReserve(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) StartPick(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) ConfirmPick(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) Ship(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderService) Cancel(ctx context.Context, id int64) (*order.Order, error) {
	return m.result(m.Called(ctx, id))
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, in inventory.CreateProductInput) (inventory.Product, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(inventory.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id int64) (inventory.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(inventory.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, limit, offset int) ([]inventory.Product, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductService) AdjustStock(ctx context.Context, id int64, delta int) (inventory.Product, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(inventory.Product), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }
