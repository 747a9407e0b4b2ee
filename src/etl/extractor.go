package etl

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/username/momosms/backend/src/logger"
	"github.com/username/momosms/backend/src/models"
)

type smsElement struct {
	Protocol      string `xml:"protocol,attr"`
	Address       string `xml:"address,attr"`
	Date          string `xml:"date,attr"`
	Type          string `xml:"type,attr"`
	Subject       string `xml:"subject,attr"`
	Body          string `xml:"body,attr"`
	Toa           string `xml:"toa,attr"`
	ScToa         string `xml:"sc_toa,attr"`
	ServiceCenter string `xml:"service_center,attr"`
	Read          string `xml:"read,attr"`
	Status        string `xml:"status,attr"`
	Locked        string `xml:"locked,attr"`
	DateSent      string `xml:"date_sent,attr"`
	SubID         string `xml:"sub_id,attr"`
	ReadableDate  string `xml:"readable_date,attr"`
	ContactName   string `xml:"contact_name,attr"`
}

type smsExport struct {
	XMLName  xml.Name
	Messages []smsElement `xml:"sms"`
}

type extractorImpl struct {
	senderAddress string
	filterSender  bool
}

// NewExtractor returns an Extractor that keeps only messages whose sender
// address equals senderAddress and whose body is non-empty.
func NewExtractor(senderAddress string) Extractor {
	return &extractorImpl{senderAddress: senderAddress, filterSender: true}
}

// NewUnfilteredExtractor returns an Extractor that keeps every message.
func NewUnfilteredExtractor() Extractor {
	return &extractorImpl{}
}

func (e *extractorImpl) ExtractFile(path string) ([]models.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, err
	}
	defer f.Close()
	return e.Extract(f)
}

func (e *extractorImpl) Extract(r io.Reader) ([]models.RawMessage, error) {
	var export smsExport
	if err := xml.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}

	messages := make([]models.RawMessage, 0, len(export.Messages))
	for _, sms := range export.Messages {
		if e.filterSender && (sms.Address != e.senderAddress || sms.Body == "") {
			continue
		}
		messages = append(messages, models.RawMessage{
			Protocol:      sms.Protocol,
			Address:       sms.Address,
			Date:          sms.Date,
			Type:          sms.Type,
			Subject:       sms.Subject,
			Body:          sms.Body,
			Toa:           sms.Toa,
			ScToa:         sms.ScToa,
			ServiceCenter: sms.ServiceCenter,
			Read:          sms.Read,
			Status:        sms.Status,
			Locked:        sms.Locked,
			DateSent:      sms.DateSent,
			SubID:         sms.SubID,
			ReadableDate:  sms.ReadableDate,
			ContactName:   sms.ContactName,
		})
	}

	if logger.L != nil {
		logger.L.Info("Extracted SMS records", "count", len(messages), "totalInFile", len(export.Messages))
	}
	return messages, nil
}
