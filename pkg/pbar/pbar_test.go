package pbar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBar(t *testing.T) {
	var sb strings.Builder
	b := New(&sb, "saving", 8192)

	b.Add(4096)
	b.Render(true)
	require.Contains(t, sb.String(), "saving: [==========>         ]  50% (4.0 KiB/8.0 KiB)")

	sb.Reset()
	b.Add(4096)
	b.Finish()
	require.Contains(t, sb.String(), "[====================] 100% (8.0 KiB/8.0 KiB)")
	require.True(t, strings.HasSuffix(sb.String(), "\n"))
}

func TestBarEmptyTotal(t *testing.T) {
	var sb strings.Builder
	New(&sb, "x", 0).Finish()
	require.Contains(t, sb.String(), "100%")
}
