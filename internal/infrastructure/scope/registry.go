package scope

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"wallet_adapter/internal/app/port"
)

// Options describes the environment the registry stands in for.
type Options struct {
	// Headless means there is no scope at all.
	Headless     bool
	Redirectable bool
	Href         string
	// Origin defaults to the scheme and host of Href.
	Origin string
	// OnNavigate is called with every URL the page is sent to.
	OnNavigate func(url string)
}

// Registry is an in-process scope: wallets are injected at dotted paths and
// navigations are recorded instead of followed.
type Registry struct {
	headless     bool
	redirectable bool
	onNavigate   func(string)

	mu          sync.RWMutex
	wallets     map[string]port.InjectedWallet
	href        string
	origin      string
	navigations []string
}

var _ port.Scope = (*Registry)(nil)

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		headless:     opts.Headless,
		redirectable: opts.Redirectable,
		onNavigate:   opts.OnNavigate,
		wallets:      make(map[string]port.InjectedWallet),
	}
	r.setLocation(opts.Href, opts.Origin)
	return r
}

func (r *Registry) Available() bool    { return !r.headless }
func (r *Registry) Redirectable() bool { return r.redirectable }

// Inject places wallet at path, replacing whatever was there.
func (r *Registry) Inject(path string, wallet port.InjectedWallet) error {
	path = normalize(path)
	if path == "" {
		return fmt.Errorf("invalid injection path %q", path)
	}
	if wallet == nil {
		return fmt.Errorf("nil wallet for injection path %q", path)
	}
	r.mu.Lock()
	r.wallets[path] = wallet
	r.mu.Unlock()
	return nil
}

// Remove deletes the wallet at path and reports whether one was there.
func (r *Registry) Remove(path string) bool {
	path = normalize(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[path]; !ok {
		return false
	}
	delete(r.wallets, path)
	return true
}

func (r *Registry) Lookup(path string) (port.InjectedWallet, bool) {
	if r.headless {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[normalize(path)]
	return w, ok
}

func (r *Registry) Location() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.href, r.origin
}

// SetLocation changes the current page. An empty origin is derived from href.
func (r *Registry) SetLocation(href, origin string) {
	r.mu.Lock()
	r.setLocation(href, origin)
	r.mu.Unlock()
}

func (r *Registry) setLocation(href, origin string) {
	if origin == "" {
		origin = originOf(href)
	}
	r.href = href
	r.origin = origin
}

func (r *Registry) Navigate(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid navigation target: %w", err)
	}
	if !u.IsAbs() {
		return fmt.Errorf("navigation target %q is not absolute", target)
	}
	r.mu.Lock()
	r.navigations = append(r.navigations, target)
	r.mu.Unlock()
	if r.onNavigate != nil {
		r.onNavigate(target)
	}
	return nil
}

// LastNavigation returns the most recent navigation target.
func (r *Registry) LastNavigation() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.navigations) == 0 {
		return "", false
	}
	return r.navigations[len(r.navigations)-1], true
}

func normalize(path string) string {
	return strings.Trim(strings.TrimSpace(path), ".")
}

func originOf(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
