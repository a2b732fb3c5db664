package ecsfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteInfo(t *testing.T) {
	v, _ := newVolume(t, 100)
	writeFile(t, v, "a", randomBytes(BlockSize+1))

	info, err := v.Info()
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteInfo(&sb, info))
	require.Equal(t, "FS Info:\n"+
		"total_blk_count=103\n"+
		"fat_blk_count=1\n"+
		"rdir_blk=2\n"+
		"data_blk=3\n"+
		"data_blk_count=100\n"+
		"fat_free_ratio=97/100\n"+
		"rdir_free_ratio=127/128\n", sb.String())
}

func TestWriteListingAndChains(t *testing.T) {
	v, _ := newVolume(t, 100)
	writeFile(t, v, "a", randomBytes(BlockSize+1))
	writeFile(t, v, "b", []byte("xyz"))

	entries, err := v.List()
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteListing(&sb, entries))
	require.Equal(t, "FS Ls:\n"+
		"file: a, size: 4097, data_blk: 1\n"+
		"file: b, size: 3, data_blk: 3\n", sb.String())

	sb.Reset()
	require.NoError(t, WriteChains(&sb, v))
	require.Equal(t, "FS Ls w/ blocks:\n"+
		"file: a, size: 4097, data_blk: 1\n"+
		"\tBlock[1]=1\n"+
		"\tBlock[2]=2\n"+
		"file: b, size: 3, data_blk: 3\n"+
		"\tBlock[1]=3\n", sb.String())
}
