package etl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<smses count="4">
  <sms protocol="0" address="M-Money" date="1715351458724" type="1" subject="null"
       body="You have received 5000 RWF from Alice (250788123456). TxId: 987654321."
       toa="null" sc_toa="null" service_center="+250788110381" read="1" status="-1"
       locked="0" date_sent="1715351451000" sub_id="6" readable_date="10 May 2024 4:30:58 PM"
       contact_name="(Unknown)" />
  <sms protocol="0" address="M-Money" date="1715446901815" type="1" subject="null"
       body="TxId: 73214484437. Your payment of 1000 RWF to Jane Smith has been completed. Fee was 20 RWF. Your new balance: 3260 RWF."
       toa="null" sc_toa="null" service_center="+250788110381" read="1" status="-1"
       locked="0" date_sent="1715446900000" sub_id="6" readable_date="11 May 2024 7:01:41 PM"
       contact_name="(Unknown)" />
  <sms protocol="0" address="0788999999" date="1715447000000" type="1" subject="null"
       body="Hey, are we still on for lunch?" toa="null" sc_toa="null"
       service_center="+250788110381" read="1" status="-1" locked="0"
       date_sent="1715446999000" sub_id="6" readable_date="11 May 2024 7:03:20 PM"
       contact_name="Bob" />
  <sms protocol="0" address="M-Money" date="1715448000000" type="1" subject="null"
       body="" toa="null" sc_toa="null" service_center="+250788110381" read="1"
       status="-1" locked="0" date_sent="1715447999000" sub_id="6"
       readable_date="11 May 2024 7:20:00 PM" contact_name="(Unknown)" />
</smses>`

func TestExtract_FiltersToSenderWithBody(t *testing.T) {
	extractor := NewExtractor("M-Money")

	messages, err := extractor.Extract(strings.NewReader(sampleXML))
	require.NoError(t, err)

	// Third message has another sender, fourth has an empty body.
	require.Len(t, messages, 2)
	assert.Equal(t, "M-Money", messages[0].Address)
	assert.Equal(t, "1715351458724", messages[0].Date)
	assert.Contains(t, messages[0].Body, "TxId: 987654321")
	assert.Equal(t, "(Unknown)", messages[0].ContactName)
	assert.Equal(t, "+250788110381", messages[0].ServiceCenter)
}

func TestExtract_PreservesDocumentOrder(t *testing.T) {
	extractor := NewExtractor("M-Money")

	messages, err := extractor.Extract(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Body, "received 5000 RWF")
	assert.Contains(t, messages[1].Body, "payment of 1000 RWF")
}

func TestExtract_Unfiltered(t *testing.T) {
	extractor := NewUnfilteredExtractor()

	messages, err := extractor.Extract(strings.NewReader(sampleXML))
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestExtract_MalformedXML(t *testing.T) {
	extractor := NewExtractor("M-Money")

	_, err := extractor.Extract(strings.NewReader("<smses><sms address='M-Money'"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedXML)
}

func TestExtractFile_NotFound(t *testing.T) {
	extractor := NewExtractor("M-Money")

	_, err := extractor.ExtractFile(filepath.Join(t.TempDir(), "does-not-exist.xml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)
}

func TestExtractFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	extractor := NewExtractor("M-Money")
	messages, err := extractor.ExtractFile(path)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}
