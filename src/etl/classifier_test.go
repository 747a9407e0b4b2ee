package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/momosms/backend/src/models"
)

func classifyOne(t *testing.T, body string) models.ClassifiedTransaction {
	t.Helper()
	classifier := NewClassifier("RWF")
	transactions, skipped := classifier.Classify([]models.NormalizedRecord{{Body: body}})
	require.Len(t, transactions, 1)
	require.Equal(t, 0, skipped)
	return transactions[0]
}

func TestClassify_ReceivedTransfer(t *testing.T) {
	tx := classifyOne(t, "You have received 5000 RWF from Alice (250788123456). TxId: 987654321.")

	assert.Equal(t, "987654321", tx.ExternalRef)
	assert.Equal(t, models.CategoryTransfer, tx.CategoryCode)
	assert.Equal(t, "5000", tx.Amount.String())
	assert.Equal(t, "Alice", tx.CounterParty)
	assert.Equal(t, models.StatusCompleted, tx.TransactionStatus)
	assert.Equal(t, "RWF", tx.Currency)
	assert.True(t, tx.FeeAmount.IsZero())
}

func TestClassify_PaymentWithFeeAndBalance(t *testing.T) {
	tx := classifyOne(t, "TxId: 73214484437. Your payment of 1,000 RWF to Jane Smith 12845 has been completed. Fee was 20 RWF. Your new balance: 3,260 RWF.")

	assert.Equal(t, "73214484437", tx.ExternalRef)
	assert.Equal(t, models.CategoryPayment, tx.CategoryCode)
	assert.Equal(t, "1000", tx.Amount.String())
	assert.Equal(t, "Jane Smith", tx.CounterParty)
	assert.Equal(t, "20", tx.FeeAmount.String())
	assert.Equal(t, "3260", tx.Balance.String())
}

func TestClassify_DropsNonTransactionMessages(t *testing.T) {
	classifier := NewClassifier("RWF")

	transactions, skipped := classifier.Classify([]models.NormalizedRecord{
		{Body: "Hey, are we still on for lunch?"},
		{Body: "Your OTP is 123456"},
		{Body: "You have received 2000 RWF from Bob (250788000000). TxId: 111."},
	})

	assert.Len(t, transactions, 1)
	assert.Equal(t, 2, skipped)
}

func TestClassify_ExternalRefLabels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"TxId", "Done. TxId: 123", "123"},
		{"TransactionId", "Transaction Id: 456 confirmed", "456"},
		{"FinancialTransactionId", "Financial Transaction Id: 789", "789"},
		{"CaseInsensitive", "txid: 321", "321"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := classifyOne(t, tt.body)
			assert.Equal(t, tt.want, tx.ExternalRef)
		})
	}
}

func TestClassify_CategoryKeywords(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"received", "received 100 RWF. TxId: 1", models.CategoryTransfer},
		{"sent", "You sent 100 RWF. TxId: 1", models.CategoryTransfer},
		{"payment", "Your payment of 100 RWF. TxId: 1", models.CategoryPayment},
		{"paid", "You paid 100 RWF. TxId: 1", models.CategoryPayment},
		{"deposit", "A deposit of 100 RWF. TxId: 1", models.CategoryDeposit},
		{"addedToYour", "100 RWF has been added to your account. TxId: 1", models.CategoryDeposit},
		{"withdrawn", "You have withdrawn 100 RWF. TxId: 1", models.CategoryWithdrawal},
		{"airtime", "Airtime purchase of 100 RWF. TxId: 1", models.CategoryAirtime},
		{"bill", "Your electricity bill of 100 RWF. TxId: 1", models.CategoryBillPayment},
		{"default", "100 RWF moved. TxId: 1", models.CategoryTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := classifyOne(t, tt.body)
			assert.Equal(t, tt.want, tx.CategoryCode)
		})
	}
}

func TestClassify_StatusKeywords(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"failed", "Transfer of 100 RWF failed. TxId: 1", models.StatusFailed},
		{"unsuccessful", "Transfer of 100 RWF was unsuccessful. TxId: 1", models.StatusFailed},
		{"pending", "Transfer of 100 RWF is pending. TxId: 1", models.StatusPending},
		{"default", "Transfer of 100 RWF done. TxId: 1", models.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := classifyOne(t, tt.body)
			assert.Equal(t, tt.want, tx.TransactionStatus)
		})
	}
}

func TestClassify_CounterPartyDefaultsToUnknown(t *testing.T) {
	tx := classifyOne(t, "A deposit of 100 RWF completed. TxId: 42")
	assert.Equal(t, "Unknown", tx.CounterParty)
}

func TestClassify_AmountDefaultsToZero(t *testing.T) {
	tx := classifyOne(t, "Transaction confirmed. TxId: 42")
	assert.True(t, tx.Amount.IsZero())
}

func TestClassify_EmittedCategoryAlwaysValid(t *testing.T) {
	classifier := NewClassifier("RWF")

	bodies := []models.NormalizedRecord{
		{Body: "received 100 RWF from A (1). TxId: 1"},
		{Body: "weird message TxId: 2"},
		{Body: "bill paid TxId: 3"},
		{Body: "withdrawn 50 RWF TxId: 4"},
	}
	transactions, _ := classifier.Classify(bodies)
	for _, tx := range transactions {
		assert.NotEmpty(t, tx.ExternalRef)
		assert.Contains(t, models.CategoryCodes, tx.CategoryCode)
	}
}
