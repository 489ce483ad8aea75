package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgesync/internal/domain/account"
	"bridgesync/internal/domain/item"
	"bridgesync/internal/domain/transaction"
	bridgeclient "bridgesync/internal/infrastructure/bridge"
	"bridgesync/internal/shared/apperr"
)

// MockClient implements bridgeclient.ClientInterface
type MockClient struct {
	GetItemsFunc        func(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error)
	GetAccountsFunc     func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error)
	GetTransactionsFunc func(ctx context.Context, accessToken, since string) (*bridgeclient.TransactionsResponse, error)
}

func (m *MockClient) CreateUser(ctx context.Context, req bridgeclient.CreateUserRequest) (*bridgeclient.UserResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *MockClient) GenerateAuthToken(ctx context.Context, userUUID string) (*bridgeclient.AuthTokenResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *MockClient) CreateConnectSession(ctx context.Context, accessToken string, req bridgeclient.ConnectSessionRequest) (*bridgeclient.ConnectSessionResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *MockClient) GetItems(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error) {
	if m.GetItemsFunc != nil {
		return m.GetItemsFunc(ctx, accessToken)
	}
	return &bridgeclient.ItemsResponse{}, nil
}

func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return &bridgeclient.AccountsResponse{}, nil
}

func (m *MockClient) GetTransactions(ctx context.Context, accessToken, since string) (*bridgeclient.TransactionsResponse, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, since)
	}
	return &bridgeclient.TransactionsResponse{}, nil
}

// MockItemRepo implements item.Repository
type MockItemRepo struct {
	items map[int64]item.UpsertParams
}

func (m *MockItemRepo) Upsert(ctx context.Context, params item.UpsertParams) (*item.Item, bool, error) {
	if m.items == nil {
		m.items = make(map[int64]item.UpsertParams)
	}
	_, exists := m.items[params.ItemID]
	m.items[params.ItemID] = params
	return &item.Item{ItemID: params.ItemID, UserUUID: params.UserUUID, Status: params.Status}, !exists, nil
}

func (m *MockItemRepo) GetByItemID(ctx context.Context, itemID int64) (*item.Item, error) {
	return nil, item.ErrItemNotFound
}

func (m *MockItemRepo) ListByUserUUID(ctx context.Context, userUUID string) ([]*item.Item, error) {
	return nil, nil
}

func (m *MockItemRepo) UpdateStatus(ctx context.Context, itemID int64, update item.StatusUpdate) (*item.Item, error) {
	return nil, item.ErrItemNotFound
}

// MockAccountRepo implements account.Repository
type MockAccountRepo struct {
	accounts  map[int64]account.UpsertParams
	UpsertErr func(params account.UpsertParams) error
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, bool, error) {
	if m.UpsertErr != nil {
		if err := m.UpsertErr(params); err != nil {
			return nil, false, err
		}
	}
	if m.accounts == nil {
		m.accounts = make(map[int64]account.UpsertParams)
	}
	_, exists := m.accounts[params.AccountID]
	m.accounts[params.AccountID] = params
	return &account.Account{AccountID: params.AccountID}, !exists, nil
}

func (m *MockAccountRepo) GetByAccountID(ctx context.Context, accountID int64) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByItemID(ctx context.Context, itemID int64) ([]*account.Account, error) {
	return nil, nil
}

func (m *MockAccountRepo) GetSelected(ctx context.Context, itemID int64) (*account.Account, error) {
	return nil, account.ErrNoSelectedAccount
}

func (m *MockAccountRepo) TrySelect(ctx context.Context, itemID, accountID int64) (bool, error) {
	return false, nil
}

func (m *MockAccountRepo) Deselect(ctx context.Context, accountID int64) error {
	return nil
}

// MockTransactionRepo implements transaction.Repository
type MockTransactionRepo struct {
	transactions map[int64]transaction.UpsertParams
}

func (m *MockTransactionRepo) Upsert(ctx context.Context, params transaction.UpsertParams) (*transaction.Transaction, bool, error) {
	if m.transactions == nil {
		m.transactions = make(map[int64]transaction.UpsertParams)
	}
	_, exists := m.transactions[params.TransactionID]
	m.transactions[params.TransactionID] = params
	return &transaction.Transaction{TransactionID: params.TransactionID}, !exists, nil
}

func (m *MockTransactionRepo) GetByTransactionID(ctx context.Context, transactionID int64) (*transaction.Transaction, error) {
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) ListByAccountID(ctx context.Context, accountID int64, since *time.Time) ([]*transaction.Transaction, error) {
	return nil, nil
}

func decode[T any](t *testing.T, raw string) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return &out
}

func TestSyncService_SyncAccounts_MapsFields(t *testing.T) {
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
			assert.Equal(t, "tok", accessToken)
			return decode[bridgeclient.AccountsResponse](t, `{"resources":[
				{"id":200,"item_id":100,"name":"Main","balance":150.00,"currency":"EUR","type":"checking","status":"0","iban":"FR76"},
				{"id":201,"item_id":100,"name":"Savings","balance":"42.10","currency":"EUR","type":"savings","status":0}
			]}`), nil
		},
	}
	accounts := &MockAccountRepo{}
	svc := NewSyncService(client, &MockItemRepo{}, accounts, &MockTransactionRepo{})

	result, err := svc.SyncAccounts(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Entity: EntityAccounts, Found: 2, Created: 2}, result)

	main := accounts.accounts[200]
	assert.Equal(t, int64(100), main.ItemID)
	assert.Equal(t, "Main", main.Name)
	assert.Equal(t, "150", main.Balance.String())
	require.NotNil(t, main.IBAN)
	assert.Equal(t, "FR76", *main.IBAN)

	savings := accounts.accounts[201]
	assert.Nil(t, savings.IBAN, "absent optional field stays unset")
	assert.Equal(t, "42.1", savings.Balance.String())
	assert.Equal(t, "0", savings.Status)
}

func TestSyncService_SyncAccounts_Idempotent(t *testing.T) {
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
			return decode[bridgeclient.AccountsResponse](t, `{"resources":[
				{"id":200,"item_id":100,"name":"Main","balance":150,"currency":"EUR","type":"checking","status":"ok"}
			]}`), nil
		},
	}
	accounts := &MockAccountRepo{}
	svc := NewSyncService(client, &MockItemRepo{}, accounts, &MockTransactionRepo{})

	_, err := svc.SyncAccounts(context.Background(), "tok")
	require.NoError(t, err)
	first := accounts.accounts[200]

	result, err := svc.SyncAccounts(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, accounts.accounts, 1)
	assert.Equal(t, first, accounts.accounts[200])
}

func TestSyncService_MalformedPayloadWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		run  func(svc *SyncService) error
	}{
		{
			name: "item without status",
			run: func(svc *SyncService) error {
				_, err := svc.SyncItems(context.Background(), "user-1", "tok")
				return err
			},
		},
		{
			name: "account without balance",
			run: func(svc *SyncService) error {
				_, err := svc.SyncAccounts(context.Background(), "tok")
				return err
			},
		},
		{
			name: "transaction with bad date",
			run: func(svc *SyncService) error {
				_, err := svc.SyncTransactions(context.Background(), "tok", "")
				return err
			},
		},
	}

	client := &MockClient{
		GetItemsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error) {
			return decode[bridgeclient.ItemsResponse](t, `{"resources":[{"id":1,"status":"ok"},{"id":2}]}`), nil
		},
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
			return decode[bridgeclient.AccountsResponse](t, `{"resources":[
				{"id":200,"item_id":100,"name":"Main","balance":1,"currency":"EUR","type":"checking","status":"ok"},
				{"id":201,"item_id":100,"name":"Broken","currency":"EUR","type":"checking","status":"ok"}
			]}`), nil
		},
		GetTransactionsFunc: func(ctx context.Context, accessToken, since string) (*bridgeclient.TransactionsResponse, error) {
			return decode[bridgeclient.TransactionsResponse](t, `{"resources":[
				{"id":300,"account_id":200,"description":"x","amount":1,"currency":"EUR","date":"2024-01-01"},
				{"id":301,"account_id":200,"description":"y","amount":1,"currency":"EUR","date":"01/02/2024"}
			]}`), nil
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, accounts, txs := &MockItemRepo{}, &MockAccountRepo{}, &MockTransactionRepo{}
			svc := NewSyncService(client, items, accounts, txs)

			err := tt.run(svc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrUpstream))
			assert.True(t, errors.Is(err, ErrMalformedPayload))
			assert.Empty(t, items.items)
			assert.Empty(t, accounts.accounts)
			assert.Empty(t, txs.transactions)
		})
	}
}

func TestSyncService_ProviderFailureWritesNothing(t *testing.T) {
	client := &MockClient{
		GetItemsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error) {
			return nil, &bridgeclient.APIError{StatusCode: 503, Body: "maintenance"}
		},
	}
	items := &MockItemRepo{}
	svc := NewSyncService(client, items, &MockAccountRepo{}, &MockTransactionRepo{})

	result, err := svc.SyncItems(context.Background(), "user-1", "tok")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Empty(t, items.items)
}

func TestSyncService_WriteFailureKeepsEarlierRecords(t *testing.T) {
	storeErr := errors.New("disk full")
	client := &MockClient{
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
			return decode[bridgeclient.AccountsResponse](t, `{"resources":[
				{"id":200,"item_id":100,"name":"A","balance":1,"currency":"EUR","type":"checking","status":"ok"},
				{"id":201,"item_id":100,"name":"B","balance":1,"currency":"EUR","type":"checking","status":"ok"}
			]}`), nil
		},
	}
	accounts := &MockAccountRepo{
		UpsertErr: func(params account.UpsertParams) error {
			if params.AccountID == 201 {
				return storeErr
			}
			return nil
		},
	}
	svc := NewSyncService(client, &MockItemRepo{}, accounts, &MockTransactionRepo{})

	result, err := svc.SyncAccounts(context.Background(), "tok")
	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, result.Created)
	assert.Contains(t, accounts.accounts, int64(200))
	assert.NotContains(t, accounts.accounts, int64(201))
}

func TestSyncService_SyncTransactions_DefaultsAndSince(t *testing.T) {
	client := &MockClient{
		GetTransactionsFunc: func(ctx context.Context, accessToken, since string) (*bridgeclient.TransactionsResponse, error) {
			assert.Equal(t, "whatever-the-caller-sent", since)
			return decode[bridgeclient.TransactionsResponse](t, `{"resources":[
				{"id":300,"account_id":200,"description":"Coffee","amount":-20.00,"currency":"EUR","date":"2024-01-01"},
				{"id":301,"account_id":200,"description":"Refund","amount":5,"currency":"EUR","date":"2024-01-02","is_deleted":true,"category_id":7,"operation_type":"card"}
			]}`), nil
		},
	}
	txs := &MockTransactionRepo{}
	svc := NewSyncService(client, &MockItemRepo{}, &MockAccountRepo{}, txs)

	_, err := svc.SyncTransactions(context.Background(), "tok", "whatever-the-caller-sent")
	require.NoError(t, err)

	coffee := txs.transactions[300]
	assert.False(t, coffee.IsDeleted)
	assert.Nil(t, coffee.CategoryID)
	assert.Nil(t, coffee.OperationType)
	assert.Equal(t, "-20", coffee.Amount.String())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), coffee.Date)

	refund := txs.transactions[301]
	assert.True(t, refund.IsDeleted)
	require.NotNil(t, refund.CategoryID)
	assert.Equal(t, int64(7), *refund.CategoryID)
	assert.Equal(t, "card", *refund.OperationType)
}

func TestSyncService_SyncUserData_PartsAreIndependent(t *testing.T) {
	client := &MockClient{
		GetItemsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.ItemsResponse, error) {
			return decode[bridgeclient.ItemsResponse](t, `{"resources":[{"id":100,"status":"ok"}]}`), nil
		},
		GetAccountsFunc: func(ctx context.Context, accessToken string) (*bridgeclient.AccountsResponse, error) {
			return nil, &bridgeclient.APIError{StatusCode: 500, Body: "boom"}
		},
		GetTransactionsFunc: func(ctx context.Context, accessToken, since string) (*bridgeclient.TransactionsResponse, error) {
			assert.Empty(t, since)
			return decode[bridgeclient.TransactionsResponse](t, `{"resources":[
				{"id":300,"account_id":200,"description":"Coffee","amount":-20,"currency":"EUR","date":"2024-01-01"}
			]}`), nil
		},
	}
	items, accounts, txs := &MockItemRepo{}, &MockAccountRepo{}, &MockTransactionRepo{}
	svc := NewSyncService(client, items, accounts, txs)

	result, err := svc.SyncUserData(context.Background(), "user-1", "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))

	assert.Equal(t, "user-1", items.items[100].UserUUID)
	assert.Len(t, txs.transactions, 1)
	assert.Empty(t, accounts.accounts)

	require.NotNil(t, result.Items)
	assert.Nil(t, result.Accounts)
	require.NotNil(t, result.Transactions)
	assert.Len(t, result.Errors, 1)
}
