package scope

import (
	"context"
	"testing"

	"wallet_adapter/internal/app/walletadapter/bbawallet"
	"wallet_adapter/internal/domain/entity"
	"wallet_adapter/internal/infrastructure/rpcwallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Location(t *testing.T) {
	r := NewRegistry(Options{Href: "https://app.example.com/swap?x=1"})
	href, origin := r.Location()
	assert.Equal(t, "https://app.example.com/swap?x=1", href)
	assert.Equal(t, "https://app.example.com", origin)

	r.SetLocation("https://other.example.com/", "https://custom.example.com")
	href, origin = r.Location()
	assert.Equal(t, "https://other.example.com/", href)
	assert.Equal(t, "https://custom.example.com", origin)

	r.SetLocation("not a url", "")
	_, origin = r.Location()
	assert.Empty(t, origin)
}

func TestRegistry_InjectLookupRemove(t *testing.T) {
	r := NewRegistry(Options{})
	w := &rpcwallet.Wallet{}

	require.NoError(t, r.Inject("bbawallet.bbachain", w))
	got, ok := r.Lookup(".bbawallet.bbachain.")
	require.True(t, ok)
	assert.Same(t, w, got)

	_, ok = r.Lookup("bbachain")
	assert.False(t, ok)

	assert.Error(t, r.Inject("  ", w))
	assert.Error(t, r.Inject("bbachain", nil))

	assert.True(t, r.Remove("bbawallet.bbachain"))
	assert.False(t, r.Remove("bbawallet.bbachain"))
	_, ok = r.Lookup("bbawallet.bbachain")
	assert.False(t, ok)
}

func TestRegistry_Headless(t *testing.T) {
	r := NewRegistry(Options{Headless: true})
	require.NoError(t, r.Inject("bbachain", &rpcwallet.Wallet{}))

	assert.False(t, r.Available())
	_, ok := r.Lookup("bbachain")
	assert.False(t, ok)
}

func TestRegistry_Navigate(t *testing.T) {
	var seen []string
	r := NewRegistry(Options{Redirectable: true, OnNavigate: func(u string) { seen = append(seen, u) }})
	assert.True(t, r.Redirectable())

	_, ok := r.LastNavigation()
	assert.False(t, ok)

	require.NoError(t, r.Navigate("https://wallet.bbachain.com/ul/browse/x"))
	require.NoError(t, r.Navigate("https://wallet.bbachain.com/ul/browse/y"))
	assert.Error(t, r.Navigate("/relative"))

	last, ok := r.LastNavigation()
	require.True(t, ok)
	assert.Equal(t, "https://wallet.bbachain.com/ul/browse/y", last)
	assert.Equal(t, []string{"https://wallet.bbachain.com/ul/browse/x", "https://wallet.bbachain.com/ul/browse/y"}, seen)
}

func TestRegistry_DrivesAdapterRedirect(t *testing.T) {
	r := NewRegistry(Options{Redirectable: true, Href: "https://app.example.com/"})
	adapter := bbawallet.NewAdapter(r, bbawallet.Config{})
	defer adapter.Close()

	assert.Equal(t, entity.ReadyStateLoadable, adapter.ReadyState())
	require.NoError(t, adapter.Connect(context.Background()))

	last, ok := r.LastNavigation()
	require.True(t, ok)
	assert.Equal(t, "https://wallet.bbachain.com/ul/browse/https%3A%2F%2Fapp.example.com%2F?ref=https%3A%2F%2Fapp.example.com", last)
}
