package api_test

import (
	"net/http"
	"testing"

	"github.com/bricks-admin/dashboard/internal/api/testutils"
	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addCashBalance(t *testing.T, testCtx *testutils.TestContext, userID int64, flyash, bedash int64) models.Transaction {
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/balance/add", models.AddBalanceRequest{
		UserID:       userID,
		FlyashAmount: decimal.NewFromInt(flyash),
		BedashAmount: decimal.NewFromInt(bedash),
		PaymentMode:  models.PaymentCash,
		BankName:     "State Bank",
	}, testutils.AuthHeaders(testCtx.Admin.JWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutils.DecodeEnvelope[models.Transaction](t, w).Data
}

func TestAddBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	t.Run("CashWithBankName", func(t *testing.T) {
		tx := addCashBalance(t, testCtx, testCtx.User.User.ID, 18000, 900)
		assert.True(t, tx.FlyashTons.Equal(decimal.NewFromInt(100)))
		assert.True(t, tx.BedashTons.Equal(decimal.NewFromInt(5)))
		assert.True(t, tx.TotalAmount.Equal(decimal.NewFromInt(18900)))
		assert.Equal(t, "State Bank", tx.BankName)
	})

	t.Run("CashWithoutBankName", func(t *testing.T) {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/balance/add", models.AddBalanceRequest{
			UserID:       testCtx.User.User.ID,
			FlyashAmount: decimal.NewFromInt(1000),
			PaymentMode:  models.PaymentCash,
		}, testutils.AuthHeaders(testCtx.Admin.JWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Enter bank name for cash payment")
	})

	t.Run("OnlineDropsBankName", func(t *testing.T) {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/balance/add", models.AddBalanceRequest{
			UserID:          testCtx.User.User.ID,
			FlyashAmount:    decimal.NewFromInt(360),
			PaymentMode:     models.PaymentOnline,
			BankName:        "ignored",
			AccountHolder:   "Uma",
			ReferenceNumber: "UTR-1",
		}, testutils.AuthHeaders(testCtx.Admin.JWT))
		require.Equal(t, http.StatusCreated, w.Code)
		tx := testutils.DecodeEnvelope[models.Transaction](t, w).Data
		assert.Empty(t, tx.BankName)
		assert.Equal(t, "UTR-1", tx.ReferenceNumber)
	})

	t.Run("OnlyUserAccounts", func(t *testing.T) {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/balance/add", models.AddBalanceRequest{
			UserID:       testCtx.Admin.User.ID,
			FlyashAmount: decimal.NewFromInt(1000),
			PaymentMode:  models.PaymentCash,
			BankName:     "State Bank",
		}, testutils.AuthHeaders(testCtx.Admin.JWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UserCannotAdd", func(t *testing.T) {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/balance/add", models.AddBalanceRequest{
			UserID:       testCtx.User.User.ID,
			FlyashAmount: decimal.NewFromInt(1000),
			PaymentMode:  models.PaymentCash,
			BankName:     "State Bank",
		}, testutils.AuthHeaders(testCtx.User.JWT))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	addCashBalance(t, testCtx, testCtx.User.User.ID, 18000, 1800)
	token := createToken(t, testCtx, testCtx.User.User.ID, "Acme", models.MaterialFlyash)

	// a pending token does not consume balance
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/getBalance/"+itoa(testCtx.User.User.ID), nil, testutils.AuthHeaders(testCtx.User.JWT))
	require.Equal(t, http.StatusOK, w.Code)
	summary := testutils.DecodeEnvelope[models.BalanceSummary](t, w).Data
	assert.True(t, summary.Flyash.Total.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.Flyash.Used.IsZero())
	assert.True(t, summary.Bedash.Remaining.Equal(decimal.NewFromInt(10)))
	assert.Len(t, summary.Transactions, 1)

	// an updated token does
	updateToken(t, testCtx, token.ID, decimal.NewFromInt(27), decimal.NewFromInt(100))
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/getBalance/"+itoa(testCtx.User.User.ID), nil, testutils.AuthHeaders(testCtx.User.JWT))
	summary = testutils.DecodeEnvelope[models.BalanceSummary](t, w).Data
	assert.True(t, summary.Flyash.Used.Equal(decimal.NewFromInt(27)))
	assert.True(t, summary.Flyash.Remaining.Equal(decimal.NewFromInt(73)))

	// other users' balances are off limits
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/getBalance/"+itoa(testCtx.User.User.ID), nil, testutils.AuthHeaders(testCtx.OtherUser.JWT))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEditAndDeleteBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	tx := addCashBalance(t, testCtx, testCtx.User.User.ID, 18000, 0)

	amount := decimal.NewFromInt(9000)
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/balance/edit/"+itoa(tx.ID),
		models.EditBalanceRequest{FlyashAmount: &amount}, testutils.AuthHeaders(testCtx.Admin.JWT))
	require.Equal(t, http.StatusOK, w.Code)
	edited := testutils.DecodeEnvelope[models.Transaction](t, w).Data
	assert.True(t, edited.FlyashTons.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "State Bank", edited.BankName)

	// switching to online without the online details fails validation
	online := models.PaymentOnline
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/balance/edit/"+itoa(tx.ID),
		models.EditBalanceRequest{PaymentMode: &online}, testutils.AuthHeaders(testCtx.Admin.JWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/balance/delete/"+itoa(tx.ID),
		nil, testutils.AuthHeaders(testCtx.Admin.JWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/balance/delete/"+itoa(tx.ID),
		nil, testutils.AuthHeaders(testCtx.Admin.JWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	addCashBalance(t, testCtx, testCtx.User.User.ID, 18000, 1800)
	addCashBalance(t, testCtx, testCtx.OtherUser.User.ID, 3600, 0)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/balance/admin", nil,
		testutils.AuthHeaders(testCtx.Admin.JWT))
	require.Equal(t, http.StatusOK, w.Code)

	rows := testutils.DecodeEnvelope[[]models.AdminBalanceRow](t, w).Data
	require.Len(t, rows, 2)
	byUser := map[int64]models.AdminBalanceRow{}
	for _, r := range rows {
		byUser[r.User.ID] = r
	}
	assert.True(t, byUser[testCtx.User.User.ID].TotalTons.Equal(decimal.NewFromInt(110)))
	assert.True(t, byUser[testCtx.OtherUser.User.ID].TotalTons.Equal(decimal.NewFromInt(20)))

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/balance/admin", nil,
		testutils.AuthHeaders(testCtx.User.JWT))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
