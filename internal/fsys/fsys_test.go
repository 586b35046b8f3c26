package fsys_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/example/granite-db/analyzer/internal/fsys"
)

func TestHelpers(t *testing.T) {
	assert.True(t, fsys.IsHiddenName(".hidden"))
	assert.True(t, fsys.IsHiddenName("_SUCCESS"))
	assert.False(t, fsys.IsHiddenName("000021_0.lzo"))

	assert.Equal(t, "", fsys.Scheme("/test-warehouse/x"))
	assert.Equal(t, "hdfs", fsys.Scheme("hdfs://localhost:20500/x"))
	assert.Equal(t, "file", fsys.Scheme("file:///tmp/x"))

	assert.Equal(t, "hdfs://localhost:20500/test-warehouse/x", fsys.Qualify("/test-warehouse/x", "hdfs://localhost:20500/"))
	assert.Equal(t, "mem://localhost/a", fsys.Qualify("mem://localhost/a", "hdfs://localhost:20500"))
}

func TestAFS(t *testing.T) {
	ctx := context.Background()
	service := afs.New()
	base := "mem://localhost/fsys-test"
	require.NoError(t, service.Upload(ctx, base+"/dir/a.txt", 0644, strings.NewReader("a")))
	require.NoError(t, service.Upload(ctx, base+"/dir/sub/b.txt", 0644, strings.NewReader("b")))

	fs := fsys.NewAFS(service)

	ok, err := fs.Exists(ctx, base+"/dir/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = fs.Exists(ctx, base+"/missing")
	require.NoError(t, err)
	assert.False(t, ok)

	isDir, err := fs.IsDirectory(ctx, base+"/dir")
	require.NoError(t, err)
	assert.True(t, isDir)
	isDir, err = fs.IsDirectory(ctx, base+"/dir/a.txt")
	require.NoError(t, err)
	assert.False(t, isDir)

	entries, err := fs.List(ctx, base+"/dir")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, entry := range entries {
		names[entry.Name] = entry.IsDir
	}
	assert.Equal(t, map[string]bool{"a.txt": false, "sub": true}, names)
}
