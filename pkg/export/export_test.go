package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Submissions",
		Columns: []Column{
			{Key: "name", Title: "Full Name"},
			{Key: "status", Title: "Status"},
		},
		Rows: []map[string]string{
			{"name": "Ani", "status": "SUBMITTED"},
			{"name": "Budi, S.Kom", "status": "INTERVIEW"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Full Name,Status", lines[0])
	assert.Equal(t, `"Budi, S.Kom",INTERVIEW`, lines[2])
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 60)
	assert.Len(t, truncate(long), maxCellRunes)
	assert.Equal(t, "short", truncate(" short "))
}
