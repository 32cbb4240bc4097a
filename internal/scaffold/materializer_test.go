package scaffold

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/fiberplane/create-honc-app/internal/filesystem"
	"github.com/fiberplane/create-honc-app/internal/github"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name string
	body string
	mode int64
	dir  bool
}

func buildArchive(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeXGlobalHeader,
		Name:     "pax_global_header",
		PAXRecords: map[string]string{
			"comment": "0123456789abcdef",
		},
	}))

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func templateArchive(t *testing.T) []byte {
	return buildArchive(t, []tarEntry{
		{name: "fiberplane-create-honc-app-abc123/", dir: true},
		{name: "fiberplane-create-honc-app-abc123/README.md", body: "# root"},
		{name: "fiberplane-create-honc-app-abc123/templates/neon/", dir: true},
		{name: "fiberplane-create-honc-app-abc123/templates/neon/package.json", body: `{"name":"neon-template"}`},
		{name: "fiberplane-create-honc-app-abc123/templates/neon/src/index.ts", body: "export default app;"},
		{name: "fiberplane-create-honc-app-abc123/templates/neon/bin/setup.sh", body: "#!/bin/sh", mode: 0755},
		{name: "fiberplane-create-honc-app-abc123/templates/neon-openapi/package.json", body: `{"name":"other"}`},
		{name: "fiberplane-create-honc-app-abc123/templates/d1/package.json", body: `{"name":"d1"}`},
	})
}

func newTestMaterializer(t *testing.T, fsys filesystem.FileSystem, handler http.Handler) *Materializer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	repo := github.Repo{Owner: "fiberplane", Name: "create-honc-app", Ref: "main"}
	source := github.NewMockSource()
	source.SetArchiveURL(repo.Owner, repo.Name, server.URL+"/archive.tar.gz")

	return NewMaterializer(fsys, source, repo, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithHTTPClient(server.Client()),
		WithBackoff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
}

func TestMaterializer_ExtractsOnlyTemplate(t *testing.T) {
	archive := templateArchive(t)
	fsys := filesystem.NewMockFileSystem()

	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app"})
	require.NoError(t, err)

	data, err := fsys.ReadFile("/work/my-app/package.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"neon-template"}`, string(data))

	data, err = fsys.ReadFile("/work/my-app/src/index.ts")
	require.NoError(t, err)
	require.Equal(t, "export default app;", string(data))

	info, err := fsys.Stat("/work/my-app/bin/setup.sh")
	require.NoError(t, err)
	require.Equal(t, 0755, int(info.Mode().Perm()))

	require.False(t, fsys.Exists("/work/my-app/README.md"))
	require.False(t, fsys.Exists("/work/my-app/templates"))
	require.False(t, fsys.Exists("/work/my-app-openapi"))
}

func TestMaterializer_RejectsNonEmptyDirectory(t *testing.T) {
	fsys := filesystem.NewMockFileSystem()
	fsys.AddFile("/work/my-app/existing.txt", []byte("keep me"))

	var hits atomic.Int32
	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app"})
	require.ErrorIs(t, err, ErrDirectoryNotEmpty)
	require.Zero(t, hits.Load())

	data, err := fsys.ReadFile("/work/my-app/existing.txt")
	require.NoError(t, err)
	require.Equal(t, "keep me", string(data))
}

func TestMaterializer_ForceWritesIntoNonEmptyDirectory(t *testing.T) {
	archive := templateArchive(t)
	fsys := filesystem.NewMockFileSystem()
	fsys.AddFile("/work/my-app/existing.txt", []byte("keep me"))

	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app", Force: true})
	require.NoError(t, err)
	require.True(t, fsys.Exists("/work/my-app/existing.txt"))
	require.True(t, fsys.Exists("/work/my-app/package.json"))
}

func TestMaterializer_RetriesServerErrors(t *testing.T) {
	archive := templateArchive(t)
	fsys := filesystem.NewMockFileSystem()

	var hits atomic.Int32
	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(archive)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app"})
	require.NoError(t, err)
	require.Equal(t, int32(3), hits.Load())
}

func TestMaterializer_GivesUpAfterRetries(t *testing.T) {
	fsys := filesystem.NewMockFileSystem()

	var hits atomic.Int32
	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
	require.Equal(t, int32(downloadAttempts), hits.Load())
	require.False(t, fsys.Exists("/work/my-app"))
}

func TestMaterializer_NotFoundIsPermanent(t *testing.T) {
	fsys := filesystem.NewMockFileSystem()

	var hits atomic.Int32
	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/neon", Dir: "/work/my-app"})
	require.Error(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestMaterializer_UnknownTemplate(t *testing.T) {
	archive := templateArchive(t)
	fsys := filesystem.NewMockFileSystem()

	m := newTestMaterializer(t, fsys, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))

	err := m.Materialize(context.Background(), Request{TemplateID: "templates/missing", Dir: "/work/my-app"})
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestExtractTarGz_RejectsEscapingPaths(t *testing.T) {
	archive := buildArchive(t, []tarEntry{
		{name: "repo-sha/ok.txt", body: "fine"},
		{name: "repo-sha/../../../evil.txt", body: "nope"},
	})

	fsys := filesystem.NewMockFileSystem()
	fsys.AddDir("/work/app")

	_, err := extractTarGz(fsys, bytes.NewReader(archive), "", "/work/app")
	require.ErrorIs(t, err, ErrUnsafePath)
	require.False(t, fsys.Exists("/evil.txt"))
	require.False(t, fsys.Exists("/work/evil.txt"))
}

func TestExtractTarGz_InvalidStream(t *testing.T) {
	fsys := filesystem.NewMockFileSystem()
	_, err := extractTarGz(fsys, bytes.NewReader([]byte("not gzip")), "", "/work/app")
	require.Error(t, err)
}
