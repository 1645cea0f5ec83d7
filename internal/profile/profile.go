// Package profile looks up a public freelancer profile page and turns its
// rating and order count into ranking advice.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
)

const component = "profile"

var (
	// ErrBlocked is returned for usernames that must not be analyzed.
	ErrBlocked = errors.New("profile: username is blocked")
	// ErrInvalidUsername is returned for usernames with unexpected characters.
	ErrInvalidUsername = errors.New("profile: invalid username")
	// ErrFetch wraps every download or parse failure.
	ErrFetch = errors.New("profile: fetch failed")
)

// GenericError is the only failure text users see for fetch problems.
const GenericError = "❌ Error fetching profile. Make sure the username is correct."

// BlockedMessage is shown for usernames on the block list.
const BlockedMessage = "❌ This account cannot be analyzed."

const (
	defaultBaseURL = "https://www.fiverr.com"
	maxBodyBytes   = 2 << 20
	notAvailable   = "N/A"
)

// DefaultBlocked applies when the configuration leaves the block list unset.
// An explicitly empty list blocks nobody.
var DefaultBlocked = []string{"karim_boulahia"}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Config configures the lookup client.
type Config struct {
	BaseURL string        `yaml:"base_url" envconfig:"PROFILE_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"PROFILE_TIMEOUT"`
	Blocked []string      `yaml:"blocked" envconfig:"PROFILE_BLOCKED"`
}

// Profile holds the fields scraped from a profile page. Missing values are "N/A".
type Profile struct {
	Username string
	URL      string
	Rating   string
	Orders   string
	TopGig   string
}

// Client fetches profile pages.
type Client struct {
	http    *http.Client
	base    string
	timeout time.Duration
	blocked map[string]struct{}
}

// NewClient builds a client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	list := cfg.Blocked
	if list == nil {
		list = DefaultBlocked
	}
	blocked := make(map[string]struct{}, len(list))
	for _, u := range list {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			blocked[u] = struct{}{}
		}
	}
	return &Client{http: httpClient, base: base, timeout: timeout, blocked: blocked}
}

// Fetch downloads and parses the profile of username.
func (c *Client) Fetch(ctx context.Context, username string) (Profile, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if !usernameRe.MatchString(username) {
		return Profile{}, ErrInvalidUsername
	}
	if _, ok := c.blocked[strings.ToLower(username)]; ok {
		return Profile{}, ErrBlocked
	}

	pageURL := c.base + "/" + url.PathEscape(username)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	p, err := c.fetch(ctx, pageURL)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("username", logger.SanitizeLimit(username, 64)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.Warn(ctx, component, "profile.fetch", append(attrs, slog.String("err", err.Error()))...)
		return Profile{}, err
	}
	logger.Info(ctx, component, "profile.fetch", attrs...)

	p.Username = username
	p.URL = pageURL
	return p, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Profile{}, fmt.Errorf("%w: status %s", ErrFetch, resp.Status)
	}
	p, err := parsePage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return p, nil
}

// Analysis is the scraped profile with its numeric fields decoded.
type Analysis struct {
	Profile
	rating    float64
	hasRating bool
	orders    int
	hasOrders bool
}

// Analyze decodes rating and order count. Unparseable values are an ErrFetch.
func Analyze(p Profile) (Analysis, error) {
	a := Analysis{Profile: p}
	if p.Rating != "" && p.Rating != notAvailable {
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Rating), 64)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: rating %q", ErrFetch, p.Rating)
		}
		a.rating, a.hasRating = v, true
	}
	if p.Orders != "" && p.Orders != notAvailable {
		raw := strings.NewReplacer(",", "", " ", "").Replace(p.Orders)
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: orders %q", ErrFetch, p.Orders)
		}
		a.orders, a.hasOrders = n, true
	}
	return a, nil
}

// Advice returns one line of guidance per known metric.
func (a Analysis) Advice() []string {
	var out []string
	if a.hasRating {
		switch {
		case a.rating >= 4.8:
			out = append(out, "✅ Your rating is excellent! Keep delivering quality work. 🎯")
		case a.rating >= 4.5:
			out = append(out, "⚡ Your rating is good, but aim for 4.8+ by improving response time and quality.")
		default:
			out = append(out, "❗ Your rating is low. Try to provide better customer service and ask for positive reviews.")
		}
	}
	if a.hasOrders {
		switch {
		case a.orders >= 50:
			out = append(out, "🔥 You have many completed orders! Consider raising your prices.")
		case a.orders >= 10:
			out = append(out, "📈 You're getting good orders! Try optimizing your gig for better visibility.")
		default:
			out = append(out, "💡 You need more sales! Share your gig on social media and offer promotions.")
		}
	}
	return out
}
