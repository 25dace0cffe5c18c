package jdl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionResult_Describe(t *testing.T) {
	res, err := Run(context.Background(), newScriptedTransport(t, fullScript()), "1234", strPtr("5678"))
	require.NoError(t, err)

	out := res.Describe()
	lines := strings.Split(out, "\n")

	assert.Equal(t, "=== DRIVER LICENSE REPORT ===", lines[0])
	for _, want := range []string{
		"    + Spec Version: 008",
		"    + PIN1 Tries:   3",
		"    + Name:         山田太郎",
		"    + Alias:        -",
		"    + Birthday:     昭和 55年 01月 01日",
		"    + Condition 1:  眼鏡等",
		"    + Condition 2:  -",
		"    + 普通:         平成 30年 04月 30日",
		"    + 大型:         -",
		"    + Domicile:     " + sampleDomicile,
	} {
		assert.Contains(t, lines, want)
	}
	assert.False(t, strings.HasSuffix(out, "\n"))

	res.Domicile = nil
	assert.NotContains(t, res.Describe(), "Registered Domicile")
}
