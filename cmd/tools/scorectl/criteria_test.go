package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-scoring/pkg/registry"
)

func TestValidateCriteriaDocument(t *testing.T) {
	tests := []struct {
		name     string
		document string
		wantErr  bool
		wantOut  string
	}{
		{
			name:     "valid list",
			document: `[{"criterionType":"skill","value":"Go","weight":60,"isRequired":true,"minProficiency":"advanced"}]`,
			wantOut:  "criteria valid",
		},
		{
			name:     "empty list",
			document: `[]`,
			wantOut:  "criteria valid",
		},
		{
			name:     "weight out of range",
			document: `[{"criterionType":"skill","value":"Go","weight":0}]`,
			wantErr:  true,
			wantOut:  "weight",
		},
		{
			name:     "unknown type",
			document: `[{"criterionType":"hobby","value":"chess","weight":10}]`,
			wantErr:  true,
			wantOut:  "criterionType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := validateCriteriaDocument(&out, []byte(tt.document))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestValidateCriteriaDocument_BadJSON(t *testing.T) {
	err := validateCriteriaDocument(&bytes.Buffer{}, []byte(`[{`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestActivities_ExportAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"activities", "export", "--out", path})
	require.NoError(t, rootCmd.Execute())

	_, err := os.Stat(path)
	require.NoError(t, err)

	out.Reset()
	rootCmd.SetArgs([]string{"activities", "--registry", path})
	require.NoError(t, rootCmd.Execute())

	for _, taskType := range registry.Default().TaskTypes() {
		assert.Contains(t, out.String(), taskType)
	}
}
