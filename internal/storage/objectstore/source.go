package objectstore

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/vincent-petithory/dataurl"
)

// ErrUnsupportedSource is returned for image sources that are neither a
// data URI nor an http(s) URL.
var ErrUnsupportedSource = errors.New("unsupported image source")

// ErrTooLarge is returned when an image exceeds the configured size limit.
var ErrTooLarge = errors.New("image too large")

// ErrForbiddenSource is returned when a remote image resolves to a
// loopback, private, link-local or otherwise non-public address.
var ErrForbiddenSource = errors.New("image source address is not public")

const maxRedirects = 5

// cgnat is the shared address space of RFC 6598, not covered by
// netip.Addr.IsPrivate.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

type image struct {
	data        []byte
	contentType string
}

func (s *Store) load(ctx context.Context, source string) (*image, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return s.decodeDataURI(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return s.fetch(ctx, source)
	default:
		return nil, ErrUnsupportedSource
	}
}

func (s *Store) decodeDataURI(source string) (*image, error) {
	du, err := dataurl.DecodeString(source)
	if err != nil {
		return nil, errors.Wrap(err, "decode data uri")
	}
	if int64(len(du.Data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	return &image{data: du.Data, contentType: du.ContentType()}, nil
}

func (s *Store) fetch(ctx context.Context, source string) (*image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch image")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &image{data: data, contentType: contentType}, nil
}

// newFetchClient returns the client used for remote image sources. Every
// connection, including those made while following redirects, is checked
// after DNS resolution so a public name cannot point at an internal host.
func newFetchClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			return checkDialAddr(address)
		},
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			// No proxy: the proxy address would be checked instead of the target.
			Proxy:                 nil,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
		},
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return errors.Wrapf(ErrUnsupportedSource, "redirect to %q", req.URL.Scheme)
	}
	if addr, err := netip.ParseAddr(strings.Trim(req.URL.Hostname(), "[]")); err == nil {
		return checkAddr(addr)
	}
	return nil
}

func checkDialAddr(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrap(err, "split dial address")
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return errors.Wrap(err, "parse dial address")
	}
	return checkAddr(addr)
}

func checkAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified(),
		cgnat.Contains(addr):
		return errors.Wrapf(ErrForbiddenSource, "%s", addr)
	}
	return nil
}
