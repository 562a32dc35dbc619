package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMalformed   = errors.New("malformed url")
	ErrUnreachable = errors.New("url is unreachable")
)

const defaultTimeout = 5 * time.Second

type Option func(*Checker)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		c.timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// WithProbe включает сетевую проверку ссылки
func WithProbe(enabled bool) Option {
	return func(c *Checker) {
		c.probe = enabled
	}
}

// Checker проверяет ссылки на товары: синтаксис и, если включено, доступность
type Checker struct {
	client  *http.Client
	timeout time.Duration
	probe   bool
}

func New(opts ...Option) *Checker {
	c := &Checker{
		client:  &http.Client{},
		timeout: defaultTimeout,
		probe:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check возвращает нормализованную ссылку или ErrMalformed / ErrUnreachable
func (c *Checker) Check(ctx context.Context, raw string) (string, error) {
	u, err := Parse(raw)
	if err != nil {
		return "", err
	}
	if !c.probe {
		return u.String(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; cnorder-bot)")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	// маркетплейсы часто отвечают 403 ботам, поэтому отсекаем только явное отсутствие страницы
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return "", fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	return u.String(), nil
}

// Parse проверяет синтаксис: http(s), непустой хост с точкой
func Parse(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, " \n\t") {
		return nil, ErrMalformed
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrMalformed
	}
	host := u.Hostname()
	if host == "" || (!strings.Contains(host, ".") && host != "localhost") {
		return nil, ErrMalformed
	}
	return u, nil
}
