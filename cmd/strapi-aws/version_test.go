package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	version := getVersion()
	assert.NotEmpty(t, version)
	// Tests run without ldflags or module version info.
	assert.True(t, version == "dev" || strings.HasPrefix(version, "v"), "got %q", version)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)
	assert.Equal(t, "strapi-aws "+getVersion()+"\n", out.String())
}
