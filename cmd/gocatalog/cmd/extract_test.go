package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCommandStructure(t *testing.T) {
	assert.NotNil(t, extractCmd)
	assert.Equal(t, "extract QUERY", extractCmd.Use)
	assert.NotNil(t, extractCmd.RunE)

	flag := extractCmd.Flags().Lookup("param")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
}

func TestParseParams(t *testing.T) {
	query := `SELECT * FROM _columns WHERE table_name = ##t::string AND ordinal_position > ##pos::int
		AND is_nullable = ##n::boolean AND column_default = ##d::string::NULL`

	tests := []struct {
		name    string
		params  []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:   "no params",
			params: nil,
			want:   map[string]any{},
		},
		{
			name:   "typed values",
			params: []string{"t=orders", "pos=3", "n=true"},
			want:   map[string]any{"t": "orders", "pos": int64(3), "n": true},
		},
		{
			name:   "null for nullable placeholder",
			params: []string{"d=NULL"},
			want:   map[string]any{"d": nil},
		},
		{
			name:   "null literal for non-nullable placeholder stays text",
			params: []string{"t=NULL"},
			want:   map[string]any{"t": "NULL"},
		},
		{
			name:   "value containing equals sign",
			params: []string{"t=a=b"},
			want:   map[string]any{"t": "a=b"},
		},
		{
			name:   "unused name kept as string",
			params: []string{"other=5"},
			want:   map[string]any{"other": "5"},
		},
		{
			name:    "missing equals sign",
			params:  []string{"t"},
			wantErr: true,
		},
		{
			name:    "empty name",
			params:  []string{"=x"},
			wantErr: true,
		},
		{
			name:    "bad int",
			params:  []string{"pos=three"},
			wantErr: true,
		},
		{
			name:    "bad boolean",
			params:  []string{"n=maybe"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(query, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunExtract(t *testing.T) {
	writeConfig(t, "")

	original := extractParams
	defer func() { extractParams = original }()
	extractParams = []string{"n=_schema_version"}

	var buf bytes.Buffer
	extractCmd.SetOut(&buf)
	defer extractCmd.SetOut(nil)

	err := runExtract(extractCmd, []string{`SELECT att_name, att_value FROM _attributes WHERE att_name = ##n::string`})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "att_name")
	assert.Contains(t, output, "_schema_version")
	assert.Contains(t, output, "(1 row)")
}

func TestRunExtract_RejectsModification(t *testing.T) {
	writeConfig(t, "")

	original := extractParams
	defer func() { extractParams = original }()
	extractParams = nil

	err := runExtract(extractCmd, []string{`DELETE FROM _attributes`})
	assert.Error(t, err)
}
