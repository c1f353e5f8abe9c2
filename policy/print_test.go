package policy

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintHumanReadableRejectsUninitializedPolicy(t *testing.T) {
	var p Policy[float64]
	_, err := p.PrintHumanReadable(func(float64) string { return "" })
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, NotInitialised, kind)
}

func TestPrintHumanReadableNestsChildrenByIndent(t *testing.T) {
	p := newLinearPolicy(t)
	printer := func(cfg float64) string { return fmt.Sprintf("%.1f", cfg) }

	text, err := p.PrintHumanReadable(printer)
	require.NoError(t, err)

	assert.True(t, strings.Contains(text, `<state id="0">`))
	assert.True(t, strings.Contains(text, `<state id="1">`))
	assert.True(t, strings.Contains(text, `<state id="2">`))
	assert.True(t, strings.Contains(text, "<value>2.0</value>"))

	lines := strings.Split(text, "\n")
	var rootLine, childLine string
	for _, l := range lines {
		if strings.Contains(l, `id="0"`) {
			rootLine = l
		}
		if strings.Contains(l, `id="1"`) {
			childLine = l
		}
	}
	require.NotEmpty(t, rootLine)
	require.NotEmpty(t, childLine)
	assert.True(t, len(childLine)-len(strings.TrimLeft(childLine, " ")) > len(rootLine)-len(strings.TrimLeft(rootLine, " ")))
}

func TestPrintHumanReadableLeafHasEmptyChildren(t *testing.T) {
	p := newLinearPolicy(t)
	text, err := p.PrintHumanReadable(func(cfg float64) string { return fmt.Sprintf("%.1f", cfg) })
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "<children></children>"))
}
