package salesapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

func TestSalesRepositoryOverMockClient(t *testing.T) {
	repo := NewSalesRepository(NewMockClient(MockData{}))
	query := dashboard.SalesQuery{SalespersonCode: 1, Date: dashboard.DefaultDocumentDate, MonthRange: 1}

	quotes, err := repo.Quotes(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, quotes, 13)

	direct, err := dashboard.LoadExpiredQuotes(context.Background(), dashboard.DemoSalesRepository{}, query)
	require.NoError(t, err)
	expired, err := dashboard.LoadExpiredQuotes(context.Background(), repo, query)
	require.NoError(t, err)
	assert.Equal(t, len(direct), len(expired))

	paying, err := dashboard.LoadPayingCustomers(context.Background(), repo, query)
	require.NoError(t, err)
	assert.Len(t, paying, 8)
}

func TestSalesRepositorySurfacesFailures(t *testing.T) {
	boom := errors.New("backend down")
	client := NewMockClient(MockData{Err: boom})
	repo := NewSalesRepository(client)

	_, err := repo.Customers(context.Background(), dashboard.SalesQuery{})
	assert.ErrorIs(t, err, boom)

	client.SetError(nil)
	customers, err := repo.Customers(context.Background(), dashboard.SalesQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, customers)
}

func TestAuthenticatorWithMockClient(t *testing.T) {
	client := NewMockClient(MockData{})
	auth := Authenticator{Client: client}

	user, token, err := auth.Login(context.Background(), "Vendedor@example.com", "demo")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, user.Code)

	res := client.UserData(context.Background(), token)
	require.False(t, res.Failed())
	assert.Equal(t, "vendedor@example.com", res.Data.Email)

	_, _, err = auth.Login(context.Background(), "vendedor@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticatorSignupWithMockClient(t *testing.T) {
	client := NewMockClient(MockData{})
	auth := Authenticator{Client: client}
	ctx := context.Background()

	user, token, err := auth.Signup(ctx, "Nuevo@example.com", "clave", 3023)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 3023, user.Code)
	assert.Equal(t, RoleSalesperson, user.Role)

	again, _, err := auth.Login(ctx, "nuevo@example.com", "clave")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = auth.Signup(ctx, "vendedor@example.com", "x", 9)
	assert.ErrorIs(t, err, ErrUserExists)
	_, _, err = auth.Signup(ctx, "", "x", 9)
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	ok := OK([]int{})
	assert.False(t, ok.Failed())
	failed := Fail[[]int](errors.New("x"))
	assert.True(t, failed.Failed())
	_, err := failed.Unwrap()
	assert.Error(t, err)
}
