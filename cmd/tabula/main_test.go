package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/config"
)

func setup(t *testing.T) string {
	t.Helper()
	color.NoColor = true
	cfg = config.DefaultConfig()
	logger = zerolog.Nop()
	path := filepath.Join(t.TempDir(), "streets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Location,Date,Action\nA St,6/1/2025,Fixed leak\nB St,6/15/2025,Changed filter\n"), 0o600))
	return path
}

func TestChatLoop(t *testing.T) {
	path := setup(t)
	in := strings.NewReader(strings.Join([]string{
		"how many",
		":load " + path,
		"how many in June",
		":clear",
		"exit",
		"never asked",
	}, "\n"))
	var out bytes.Buffer

	err := chatLoop(context.Background(), newAssistant(context.Background()), in, &out)

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, assistant.NoDatasetMessage)
	assert.Contains(t, text, "Loaded "+path+" (2 records)")
	assert.Contains(t, text, "Found 2 records")
	assert.Contains(t, text, "⚠ "+assistant.UnavailableNote)
	assert.Contains(t, text, "Dataset cleared")
}

func TestChatLoop_BadLoadContinues(t *testing.T) {
	setup(t)
	in := strings.NewReader(":load /does/not/exist.csv\nhow many\n")
	var out bytes.Buffer

	err := chatLoop(context.Background(), newAssistant(context.Background()), in, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "✗ read /does/not/exist.csv")
	assert.Contains(t, out.String(), assistant.NoDatasetMessage)
}

func TestPrintSchema(t *testing.T) {
	path := setup(t)
	a, err := loadFile(context.Background(), path)
	require.NoError(t, err)
	var out bytes.Buffer

	printSchema(&out, a.Snapshot().Schema, a.Snapshot().Index.Len())

	text := out.String()
	assert.Contains(t, text, "streets.csv: 2 records, 3 columns")
	assert.Contains(t, text, "COLUMN")
	assert.Contains(t, text, "Location")
}
