package models

import "time"

// RawMessage is one <sms> element from the XML export, attribute values
// copied verbatim. No parsing or validation happens at this stage.
type RawMessage struct {
	Protocol      string `json:"protocol"`
	Address       string `json:"address"`
	Date          string `json:"date"` // epoch milliseconds, kept as string
	Type          string `json:"type"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	Toa           string `json:"toa"`
	ScToa         string `json:"sc_toa"`
	ServiceCenter string `json:"service_center"`
	Read          string `json:"read"`
	Status        string `json:"status"`
	Locked        string `json:"locked"`
	DateSent      string `json:"date_sent"`
	SubID         string `json:"sub_id"`
	ReadableDate  string `json:"readable_date"`
	ContactName   string `json:"contact_name"`
}

// NormalizedRecord is a RawMessage with the timestamp parsed and the
// integer-coded flags converted. Records with an unparseable timestamp
// never reach this type.
type NormalizedRecord struct {
	Address                 string    `json:"address"`
	TransactionDate         time.Time `json:"transaction_date"`
	TransactionDateReadable string    `json:"transaction_date_readable"`
	Body                    string    `json:"body"`
	ServiceCenter           string    `json:"service_center"`
	ContactName             string    `json:"contact_name"`
	Type                    int       `json:"type"`
	Read                    int       `json:"read"`
	Status                  int       `json:"status"`
}
