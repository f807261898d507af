package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintBuildData_Defaults(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildData(&buf)

	require.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", buf.String())
}

func TestGet_UsesLinkedValues(t *testing.T) {
	oldV, oldD, oldC := buildVersion, buildDate, buildCommit
	t.Cleanup(func() { buildVersion, buildDate, buildCommit = oldV, oldD, oldC })

	buildVersion, buildDate, buildCommit = "v1.0.0", "", "deadbeef"

	info := Get()
	require.Equal(t, Info{Version: "v1.0.0", Date: "N/A", Commit: "deadbeef"}, info)
}
