package document

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countPages stands in for a real PDF parser: every form feed is a page.
func countPages(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("DOC")) {
		return 0, errors.New("not a document")
	}
	return bytes.Count(data, []byte("\f")) + 1, nil
}

func TestOpenFile(t *testing.T) {
	root := fstest.MapFS{
		"pdfs/bio/cells.pdf": {Data: []byte("DOC page1\fpage2\fpage3")},
		"pdfs/broken.pdf":    {Data: []byte("garbage")},
	}
	src := NewSource(root, nil, countPages, nil)
	ctx := context.Background()

	doc, err := src.Open(ctx, "/pdfs/bio/cells.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount)
	assert.Equal(t, "/pdfs/bio/cells.pdf", doc.URL)
	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())
	assert.Nil(t, doc.Bytes())

	_, err = src.Open(ctx, "/pdfs/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(ctx, "/pdfs/broken.pdf")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes.pdf":
			w.Write([]byte("DOC one\ftwo"))
		case "/boom.pdf":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	src := NewSource(nil, srv.Client(), countPages, []string{host})
	ctx := context.Background()

	doc, err := src.Open(ctx, srv.URL+"/notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount)

	_, err = src.Open(ctx, srv.URL+"/gone.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(ctx, srv.URL+"/boom.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenRefusesHostsOutsideAllowList(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("DOC"))
	}))
	defer srv.Close()
	ctx := context.Background()

	_, err := NewSource(nil, srv.Client(), countPages, nil).Open(ctx, srv.URL+"/notes.pdf")
	assert.ErrorIs(t, err, ErrHostNotAllowed)

	_, err = NewSource(nil, srv.Client(), countPages, []string{"docs.example.com"}).Open(ctx, srv.URL+"/notes.pdf")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
	assert.Zero(t, hits)

	// A bare host name admits every port.
	doc, err := NewSource(nil, srv.Client(), countPages, []string{"127.0.0.1"}).Open(ctx, srv.URL+"/notes.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount)
	assert.Equal(t, 1, hits)
}

func TestOpenWithoutRoot(t *testing.T) {
	_, err := NewSource(nil, nil, countPages, nil).Open(context.Background(), "/notes.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPDFPagesRejectsGarbage(t *testing.T) {
	_, err := PDFPages([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
