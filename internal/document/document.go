// Package document opens study documents from the notes directory or over HTTP and reports their page count.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalid is returned when the document exists but cannot be read as a paginated document.
	ErrInvalid = errors.New("document is not readable")
	// ErrHostNotAllowed is returned for remote documents on hosts outside the allow-list.
	ErrHostNotAllowed = errors.New("document host not allowed")
)

const maxDocumentSize = 64 << 20

// PageCounter returns the number of pages in a document.
type PageCounter func(data []byte) (int, error)

// Document is an opened document.
type Document struct {
	URL       string `json:"url"`
	PageCount int    `json:"pageCount"`

	mu   sync.Mutex
	data []byte
}

// Bytes returns the raw document, or nil once closed.
func (d *Document) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// Close releases the document contents. It is safe to call more than once.
func (d *Document) Close() error {
	d.mu.Lock()
	d.data = nil
	d.mu.Unlock()
	return nil
}

type Source struct {
	root   fs.FS
	client *http.Client
	count  PageCounter
	hosts  map[string]bool
}

// NewSource resolves paths against root and fetches http(s) URLs with client.
// Only URLs whose host (with or without port) is in allowedHosts are fetched;
// with no allowed hosts every remote URL is refused.
// A nil client means http.DefaultClient; a nil counter means PDFPages.
func NewSource(root fs.FS, client *http.Client, count PageCounter, allowedHosts []string) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	if count == nil {
		count = PDFPages
	}
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(h)] = true
	}
	return &Source{root: root, client: client, count: count, hosts: hosts}
}

func (s *Source) allowed(u *url.URL) bool {
	return s.hosts[strings.ToLower(u.Host)] || s.hosts[strings.ToLower(u.Hostname())]
}

// Open loads the document at rawURL and counts its pages.
func (s *Source) Open(ctx context.Context, rawURL string) (*Document, error) {
	var data []byte
	var err error
	if u, perr := url.Parse(rawURL); perr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if !s.allowed(u) {
			return nil, errors.Wrapf(ErrHostNotAllowed, "%s", u.Host)
		}
		data, err = s.fetch(ctx, rawURL)
	} else {
		data, err = s.read(rawURL)
	}
	if err != nil {
		return nil, err
	}

	pages, err := s.count(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, rawURL, err)
	}
	return &Document{URL: rawURL, PageCount: pages, data: data}, nil
}

func (s *Source) read(name string) ([]byte, error) {
	if s.root == nil {
		return nil, errors.Wrapf(ErrNotFound, "no notes directory for %s", name)
	}
	p := strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(p) || p == "." {
		return nil, errors.Wrapf(ErrNotFound, "invalid path %s", name)
	}
	data, err := fs.ReadFile(s.root, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%s", name)
		}
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return data, nil
}

func (s *Source) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", rawURL)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", rawURL)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, errors.Wrapf(ErrNotFound, "%s", rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("failed to fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", rawURL)
	}
	return data, nil
}

// PDFPages counts the pages of a PDF.
func PDFPages(data []byte) (pages int, err error) {
	// The pdf reader panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse pdf")
	}
	return r.NumPage(), nil
}
