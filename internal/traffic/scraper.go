// Package traffic reads live facility occupancy from the university's
// sports portal.  The portal sits behind a SAML login, so a fetch replays
// the full browser sign-in before reading the two occupancy pages.
package traffic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Source yields the current head count of every facility, pools first and
// then gyms.
type Source interface {
	Fetch(ctx context.Context) ([]int, error)
}

var ErrNoCredentials = errors.New("traffic: portal credentials not configured")

const (
	authPath     = "/nus_public_web/public/auth"
	adfsPath     = "/nus_saml_provider/public/index.php/adfs/auth"
	acsPath      = "/nus_saml_provider/public/saml/module.php/saml/sp/saml2-acs.php/reboks"
	redirectPath = "/nus_public_web/public/auth/redirectAdfs"
	poolPath     = "/nus_public_web/public/profile/buypass"
	gymPath      = "/nus_public_web/public/profile/buypass/gym"
)

// Scraper logs in with a NUSNET account and scrapes occupancy.  Each Fetch
// starts a fresh cookie jar so that sessions never leak between polls.
type Scraper struct {
	base     string
	user     string
	password string
	timeout  time.Duration
}

func NewScraper(base, user, password string) *Scraper {
	return &Scraper{
		base:     strings.TrimRight(base, "/"),
		user:     user,
		password: password,
		timeout:  30 * time.Second,
	}
}

type session struct {
	follow *http.Client // follows redirects
	manual *http.Client // stops at the first response
}

func newSession(timeout time.Duration) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &session{
		follow: &http.Client{Jar: jar, Timeout: timeout},
		manual: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Fetch signs in and returns pool counts followed by gym counts.
func (s *Scraper) Fetch(ctx context.Context) ([]int, error) {
	if s.user == "" || s.password == "" {
		return nil, ErrNoCredentials
	}
	sess, err := newSession(s.timeout)
	if err != nil {
		return nil, err
	}

	// portal session cookie
	if _, err := sess.get(ctx, sess.follow, s.base+authPath); err != nil {
		return nil, fmt.Errorf("traffic: portal: %w", err)
	}

	// the identity provider's login form; its final URL carries the SAML request
	samlURL, _, err := sess.getURL(ctx, s.base+adfsPath)
	if err != nil {
		return nil, fmt.Errorf("traffic: saml request: %w", err)
	}

	form := url.Values{
		"UserName":   {s.user},
		"Password":   {s.password},
		"AuthMethod": {"FormsAuthentication"},
	}
	if _, err := sess.post(ctx, sess.manual, samlURL, form); err != nil {
		return nil, fmt.Errorf("traffic: login: %w", err)
	}

	page, err := sess.get(ctx, sess.follow, samlURL)
	if err != nil {
		return nil, fmt.Errorf("traffic: saml response: %w", err)
	}
	samlResponse, err := HiddenInputValue(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("traffic: saml response: %w", err)
	}

	form = url.Values{
		"SAMLResponse": {samlResponse},
		"RelayState":   {s.base + adfsPath},
	}
	if _, err := sess.post(ctx, sess.manual, s.base+acsPath, form); err != nil {
		return nil, fmt.Errorf("traffic: assertion: %w", err)
	}

	page, err = sess.get(ctx, sess.follow, s.base+adfsPath)
	if err != nil {
		return nil, fmt.Errorf("traffic: token: %w", err)
	}
	token, err := HiddenInputValue(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("traffic: token: %w", err)
	}
	if _, err := sess.post(ctx, sess.manual, s.base+redirectPath, url.Values{"token": {token}}); err != nil {
		return nil, fmt.Errorf("traffic: token exchange: %w", err)
	}

	page, err = sess.get(ctx, sess.follow, s.base+poolPath)
	if err != nil {
		return nil, fmt.Errorf("traffic: pool page: %w", err)
	}
	pool, err := BoxCounts(strings.NewReader(page), "swimbox")
	if err != nil {
		return nil, fmt.Errorf("traffic: pool page: %w", err)
	}

	page, err = sess.get(ctx, sess.follow, s.base+gymPath)
	if err != nil {
		return nil, fmt.Errorf("traffic: gym page: %w", err)
	}
	gym, err := BoxCounts(strings.NewReader(page), "gymbox")
	if err != nil {
		return nil, fmt.Errorf("traffic: gym page: %w", err)
	}
	return append(pool, gym...), nil
}

func (sess *session) get(ctx context.Context, c *http.Client, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	return do(c, req)
}

// getURL follows redirects and reports where they ended.
func (sess *session) getURL(ctx context.Context, target string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", err
	}
	res, err := sess.follow.Do(req)
	if err != nil {
		return "", "", err
	}
	defer res.Body.Close()
	body, err := readBody(res)
	if err != nil {
		return "", "", err
	}
	return res.Request.URL.String(), body, nil
}

func (sess *session) post(ctx context.Context, c *http.Client, target string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(c, req)
}

func do(c *http.Client, req *http.Request) (string, error) {
	res, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	return readBody(res)
}

func readBody(res *http.Response) (string, error) {
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("%s %s: status %d", res.Request.Method, res.Request.URL.Path, res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
