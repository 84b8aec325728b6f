package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sampleCSV = "\uFEFFDrug Code,Generic Name,Unit Size,MRP,Group Name\n" +
	"2,Ibuprofen 400mg,10's,\"1,025.50\",Analgesic\n" +
	"1,Paracetamol 500mg,10's,12.5,Analgesic\n" +
	",Sin código,10's,3,X\n" +
	"3,Precio malo,10's,abc,X\n" +
	"1,Paracetamol 500mg (nuevo),15's,13,Analgesic\n"

func TestParseCatalog_DescartaInvalidasYDeduplica(t *testing.T) {
	rows, skipped, err := parseCatalog(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Code)
	assert.Equal(t, "Paracetamol 500mg (nuevo)", rows[0].Name)
	assert.Equal(t, "13.00", rows[0].MRP.StringFixed(2))
	assert.Equal(t, "2", rows[1].Code)
	assert.Equal(t, "1025.50", rows[1].MRP.StringFixed(2))
}

func TestParseCatalog_CabeceraIncompleta(t *testing.T) {
	_, _, err := parseCatalog(strings.NewReader("Drug Code,Unit Size\n1,10's\n"))
	assert.Error(t, err)
}

func TestParseCatalog_Windows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("drug_code,generic_name,mrp\n7,Ácido fólico,4\n")
	require.NoError(t, err)

	rows, _, err := parseCatalog(transform.NewReader(strings.NewReader(raw), charmap.Windows1252.NewDecoder()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ácido fólico", rows[0].Name)
}

func TestWriteSQL_EscapaComillasYUsaSKUJA(t *testing.T) {
	rows, _, err := parseCatalog(strings.NewReader("Drug Code,Generic Name,MRP\n9,Children's syrup,20\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, writeSQL(&buf, rows, now, func() string { return "00000000-0000-0000-0000-000000000001" }))

	out := buf.String()
	assert.Contains(t, out, "'JA-9'")
	assert.Contains(t, out, "'Children''s syrup'")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "ON CONFLICT (sku) DO NOTHING;")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
}
