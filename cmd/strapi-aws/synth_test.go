package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/strapi-aws-go"
	"github.com/lex00/strapi-aws-go/internal/app"
)

func TestRunSynth_Envelope(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSynth(&out, testOptions(t, testConfigYAML), "", "json"))

	var result wetwire.SynthResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, []string{app.CertificateStack, app.StrapiStack}, result.Stacks)
	require.Contains(t, result.Output, app.StrapiStack)
	assert.Contains(t, result.Output[app.StrapiStack].Resources, "Distribution")
}

func TestRunSynth_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, runSynth(&out, testOptions(t, testConfigYAML), dir, "yaml"))

	assert.Empty(t, out.String())
	assert.FileExists(t, filepath.Join(dir, app.ManifestFile))
	assert.FileExists(t, filepath.Join(dir, app.TemplateFile(app.StrapiStack, "yaml")))
	assert.FileExists(t, filepath.Join(dir, app.TemplateFile(app.CertificateStack, "yaml")))
}

func TestRunSynth_Invalid(t *testing.T) {
	var out bytes.Buffer
	o := testOptions(t, testConfigYAML, "--admin-ips", "0.0.0.0/0")
	require.Error(t, runSynth(&out, o, "", "json"))

	var result wetwire.SynthResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestRunSynth_UnknownFormat(t *testing.T) {
	assert.Error(t, runSynth(&bytes.Buffer{}, testOptions(t, testConfigYAML), "", "toml"))
}
