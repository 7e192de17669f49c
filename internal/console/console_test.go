package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"enter takes default yes", "\n", true, true},
		{"enter takes default no", "\n", false, false},
		{"explicit yes", "y\n", false, true},
		{"explicit yes word", "yes\n", false, true},
		{"explicit no", "n\n", true, false},
		{"garbage is no", "sure why not\n", true, false},
		{"eof is no", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewWith(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, c.Confirm("Do it?", tt.defaultYes))
		})
	}
}

func TestConfirmCommand_DangerousDefaultsToNo(t *testing.T) {
	var out bytes.Buffer
	c := NewWith(strings.NewReader("\n"), &out)

	ok := c.ConfirmCommand("rm -rf /tmp/x", "cleanup", true)
	assert.False(t, ok, "bare Enter must decline a dangerous command")
	assert.Contains(t, out.String(), "[y/N]")
	assert.Contains(t, out.String(), "known-dangerous")
}

func TestConfirmCommand_SafeDefaultsToYes(t *testing.T) {
	var out bytes.Buffer
	c := NewWith(strings.NewReader("\n"), &out)

	ok := c.ConfirmCommand("sfc /scannow", "check system files", false)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "[Y/n]")
}

func TestChoose(t *testing.T) {
	options := []string{"llama3", "mistral", "phi3"}

	t.Run("valid pick", func(t *testing.T) {
		c := NewWith(strings.NewReader("2\n"), &bytes.Buffer{})
		assert.Equal(t, 1, c.Choose("Model?", options, 0))
	})
	t.Run("out of range falls back", func(t *testing.T) {
		c := NewWith(strings.NewReader("9\n"), &bytes.Buffer{})
		assert.Equal(t, 0, c.Choose("Model?", options, 0))
	})
	t.Run("empty falls back", func(t *testing.T) {
		c := NewWith(strings.NewReader("\n"), &bytes.Buffer{})
		assert.Equal(t, 2, c.Choose("Model?", options, 2))
	})
}

func TestReadLine_Trims(t *testing.T) {
	c := NewWith(strings.NewReader("  my pc is slow  \n"), &bytes.Buffer{})
	assert.Equal(t, "my pc is slow", c.ReadLine("> "))
}

func TestMarkdown_FallsBackWithoutRenderer(t *testing.T) {
	var out bytes.Buffer
	c := NewWith(strings.NewReader(""), &out)
	c.Markdown("# Diagnosis")
	assert.Contains(t, out.String(), "# Diagnosis")
}
