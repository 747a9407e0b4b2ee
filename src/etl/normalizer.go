package etl

import (
	"strconv"
	"time"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
)

const readableDateLayout = "2006-01-02 15:04:05"

// Fallback values for absent integer-coded attributes.
const (
	defaultSMSType    = 1
	defaultReadFlag   = 0
	defaultStatusFlag = -1
)

type normalizerImpl struct{}

func NewNormalizer() Normalizer {
	return &normalizerImpl{}
}

func (n *normalizerImpl) Normalize(raw []models.RawMessage) ([]models.NormalizedRecord, int) {
	records := make([]models.NormalizedRecord, 0, len(raw))
	skipped := 0

	for _, sms := range raw {
		if sms.Date == "" {
			if logger.L != nil {
				logger.L.Warn("Skipping SMS with missing date attribute", "address", sms.Address)
			}
			skipped++
			continue
		}

		timestampMs, err := strconv.ParseInt(sms.Date, 10, 64)
		if err != nil {
			if logger.L != nil {
				logger.L.Warn("Skipping malformed record", "date", sms.Date, "error", err)
			}
			skipped++
			continue
		}
		transactionDate := time.UnixMilli(timestampMs)

		contactName := sms.ContactName
		if contactName == "" {
			contactName = "(Unknown)"
		}

		records = append(records, models.NormalizedRecord{
			Address:                 sms.Address,
			TransactionDate:         transactionDate,
			TransactionDateReadable: transactionDate.Format(readableDateLayout),
			Body:                    sms.Body,
			ServiceCenter:           sms.ServiceCenter,
			ContactName:             contactName,
			Type:                    atoiOrDefault(sms.Type, defaultSMSType),
			Read:                    atoiOrDefault(sms.Read, defaultReadFlag),
			Status:                  atoiOrDefault(sms.Status, defaultStatusFlag),
		})
	}

	if logger.L != nil {
		logger.L.Info("Normalized records", "count", len(records), "skipped", skipped)
	}
	return records, skipped
}

func atoiOrDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
