package cmd

import (
	"bytes"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gocatalog/internal/verifier"
)

func TestVerifyCommandStructure(t *testing.T) {
	assert.NotNil(t, verifyCmd)
	assert.Equal(t, "verify SOURCE", verifyCmd.Use)
	assert.NotEmpty(t, verifyCmd.Long)
	assert.NotNil(t, verifyCmd.RunE)

	method, err := verifyCmd.Flags().GetString("method")
	assert.NoError(t, err)
	assert.Equal(t, "count", method)
	assert.NotNil(t, verifyCmd.Flags().Lookup("tables"))
}

func TestRunVerify_InvalidMethod(t *testing.T) {
	writeConfig(t, "")

	original := verifyMethod
	defer func() { verifyMethod = original }()
	verifyMethod = "md5"

	err := runVerify(verifyCmd, []string{"production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported verification method")
}

func TestRunVerify_UnknownSource(t *testing.T) {
	writeConfig(t, "")

	err := runVerify(verifyCmd, []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source "missing" not found`)
}

func TestPrintVerifyStats(t *testing.T) {
	original := color.Enable
	color.Enable = false
	defer func() { color.Enable = original }()

	stats := &verifier.Stats{
		TablesVerified: 2,
		TablesPassed:   1,
		TablesFailed:   1,
		Method:         verifier.MethodSHA256,
		Results: []*verifier.Result{
			{Table: "_schemata", SourceCount: 1, Match: true},
			{Table: "_columns", SourceCount: 4, CatalogCount: 3, ErrorMessage: "count mismatch: source=4, catalog=3"},
		},
	}

	var buf bytes.Buffer
	printVerifyStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "[Verification (sha256)]")
	assert.Contains(t, output, "✅ _schemata 1 rows")
	assert.Contains(t, output, "❌ _columns  count mismatch: source=4, catalog=3")
	assert.Contains(t, output, "Tables: 2 verified, 1 passed, 1 failed")
}
