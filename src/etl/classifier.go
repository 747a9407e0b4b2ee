package etl

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
)

// Patterns applied to message body text. The provider labels the
// transaction id in one of three ways.
var (
	externalRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)TxId:\s*(\d+)`),
		regexp.MustCompile(`(?i)Transaction Id:\s*(\d+)`),
		regexp.MustCompile(`(?i)Financial Transaction Id:\s*(\d+)`),
	}

	feePattern     = regexp.MustCompile(`(?i)Fee was\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*RWF`)
	balancePattern = regexp.MustCompile(`(?i)(?:new|your)\s+balance:?\s*(\d+(?:,\d{3})*(?:\.\d+)?)\s*RWF`)
	amountPattern  = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)\s*RWF`)

	counterPartyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)from\s+([\w\s]+?)\s+\(`),
		regexp.MustCompile(`(?i)to\s+([\w\s]+?)\s+\d`),
		regexp.MustCompile(`(?i)from\s+([\w\s]+?)\s+\*`),
	}
)

// rule is one step of the classification cascade. Rules run in a fixed
// priority order and never override a field an earlier rule already set.
type rule struct {
	name  string
	apply func(body string, tx *models.ClassifiedTransaction)
}

type classifierImpl struct {
	currency string
	rules    []rule
}

// NewClassifier builds the classification rule cascade. Amounts are tagged
// with the given currency code.
func NewClassifier(currency string) Classifier {
	return &classifierImpl{
		currency: currency,
		rules: []rule{
			{name: "fee", apply: applyFee},
			{name: "balance", apply: applyBalance},
			{name: "amount", apply: applyAmount},
			{name: "counter_party", apply: applyCounterParty},
			{name: "category", apply: applyCategory},
			{name: "status", apply: applyStatus},
		},
	}
}

func (c *classifierImpl) Classify(records []models.NormalizedRecord) ([]models.ClassifiedTransaction, int) {
	transactions := make([]models.ClassifiedTransaction, 0, len(records))
	skipped := 0

	for _, record := range records {
		// The external reference gate runs first: a body without a labeled
		// transaction id is not a transaction message at all.
		ref := extractExternalRef(record.Body)
		if ref == "" {
			skipped++
			continue
		}

		tx := models.ClassifiedTransaction{
			NormalizedRecord: record,
			ExternalRef:      ref,
			Currency:         c.currency,
		}
		for _, r := range c.rules {
			r.apply(record.Body, &tx)
		}
		transactions = append(transactions, tx)
	}

	if logger.L != nil {
		logger.L.Info("Classified transactions", "count", len(transactions), "skipped", skipped)
	}
	return transactions, skipped
}

func extractExternalRef(body string) string {
	for _, p := range externalRefPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

func applyFee(body string, tx *models.ClassifiedTransaction) {
	if m := feePattern.FindStringSubmatch(body); m != nil {
		tx.FeeAmount = parseAmount(m[1])
	}
}

func applyBalance(body string, tx *models.ClassifiedTransaction) {
	if m := balancePattern.FindStringSubmatch(body); m != nil {
		tx.Balance = parseAmount(m[1])
	}
}

func applyAmount(body string, tx *models.ClassifiedTransaction) {
	if !tx.Amount.IsZero() {
		return
	}
	// Strip fee and balance phrases so the first bare "<n> RWF" left over is
	// the transaction amount itself.
	stripped := feePattern.ReplaceAllString(body, "")
	stripped = balancePattern.ReplaceAllString(stripped, "")
	if m := amountPattern.FindStringSubmatch(stripped); m != nil {
		tx.Amount = parseAmount(m[1])
	}
}

func applyCounterParty(body string, tx *models.ClassifiedTransaction) {
	if tx.CounterParty != "" {
		return
	}
	for _, p := range counterPartyPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			tx.CounterParty = strings.TrimSpace(m[1])
			return
		}
	}
	tx.CounterParty = "Unknown"
}

func applyCategory(body string, tx *models.ClassifiedTransaction) {
	if tx.CategoryCode != "" {
		return
	}
	bodyLower := strings.ToLower(body)
	switch {
	case strings.Contains(bodyLower, "received") || strings.Contains(bodyLower, "sent"):
		tx.CategoryCode = models.CategoryTransfer
	case strings.Contains(bodyLower, "payment") || strings.Contains(bodyLower, "paid"):
		tx.CategoryCode = models.CategoryPayment
	case strings.Contains(bodyLower, "deposit") || strings.Contains(bodyLower, "added to your"):
		tx.CategoryCode = models.CategoryDeposit
	case strings.Contains(bodyLower, "withdraw"):
		tx.CategoryCode = models.CategoryWithdrawal
	case strings.Contains(bodyLower, "airtime"):
		tx.CategoryCode = models.CategoryAirtime
	case strings.Contains(bodyLower, "bill") || strings.Contains(bodyLower, "utility"):
		tx.CategoryCode = models.CategoryBillPayment
	default:
		tx.CategoryCode = models.CategoryTransfer
	}
}

func applyStatus(body string, tx *models.ClassifiedTransaction) {
	if tx.TransactionStatus != "" {
		return
	}
	bodyLower := strings.ToLower(body)
	switch {
	case strings.Contains(bodyLower, "failed") || strings.Contains(bodyLower, "unsuccessful"):
		tx.TransactionStatus = models.StatusFailed
	case strings.Contains(bodyLower, "pending"):
		tx.TransactionStatus = models.StatusPending
	default:
		tx.TransactionStatus = models.StatusCompleted
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
