package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"crypto_tracker/internal/theme"
)

var testPalette = theme.Palette{Gain: "#00ff00", Loss: "#ff0000", Up: "▲", Down: "▼"}

func TestRender_StripsMarkdown(t *testing.T) {
	out := Render("💼 *PORTFOLIO*\n```\nBTC `x`\n```", testPalette)
	assert.Equal(t, "💼 PORTFOLIO\n\nBTC x\n", out)
}

func TestRender_ColoursChanges(t *testing.T) {
	out := Render("BTC ▲ +2.50% ETH ▼ -3.10%", testPalette)
	assert.Contains(t, out, "[#00ff00]+2.50%[-]")
	assert.Contains(t, out, "[#ff0000]-3.10%[-]")
	assert.Contains(t, out, "[#00ff00]▲[-]")
	assert.Contains(t, out, "[#ff0000]▼[-]")
}

func TestRender_EscapesBrackets(t *testing.T) {
	out := Render("[red]not a tag[-]", testPalette)
	assert.False(t, strings.HasPrefix(out, "[red]"), "user text must not become a colour tag: %q", out)
}

func TestMutating(t *testing.T) {
	assert.True(t, mutating("/buy bitcoin 1"))
	assert.True(t, mutating("/THEME"))
	assert.False(t, mutating("/coins price"))
	assert.False(t, mutating("/portfolio"))
}
