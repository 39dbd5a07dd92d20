package bbawallet

import (
	"fmt"
	"net/url"
	"strings"
)

// browseURL is the universal link that opens href inside the wallet's in-app browser.
func browseURL(href, origin string) string {
	return fmt.Sprintf("%s/ul/browse/%s?ref=%s", walletURL, encodeURIComponent(href), encodeURIComponent(origin))
}

// uriUnreserved are left unescaped by encodeURIComponent but escaped by url.QueryEscape.
var uriUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s the way browsers do for a URI component.
func encodeURIComponent(s string) string {
	return uriUnreserved.Replace(url.QueryEscape(s))
}
