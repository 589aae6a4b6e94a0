// Package auth provides http.RoundTrippers that authenticate poll requests
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoToken is returned when a request to an authenticated host has no
// token to send
var ErrNoToken = errors.New("no Token provided to authenticator transport")

// StaticTokenAuthenticator adds a bearer token to requests sent to Hosts
type StaticTokenAuthenticator struct {
	// Token is sent as "Authorization: Bearer <Token>"
	Token string
	// Hosts restricts the token to requests whose host name is, or is a
	// subdomain of, one of these names. An empty list sends the token
	// everywhere.
	Hosts []string
	// Transport is any http transport that satisfies the http.RoundTripper
	// interface. nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// RoundTrip implements the RoundTripper interface
func (t *StaticTokenAuthenticator) RoundTrip(request *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if !t.authenticates(request.URL.Hostname()) {
		return transport.RoundTrip(request)
	}
	if t.Token == "" {
		return nil, ErrNoToken
	}

	newRequest := deepCopyRequestWithHeaders(request)
	newRequest.Header.Set("Authorization", "Bearer "+t.Token)
	return transport.RoundTrip(newRequest)
}

func (t *StaticTokenAuthenticator) authenticates(hostname string) bool {
	if len(t.Hosts) == 0 {
		return true
	}
	for _, host := range t.Hosts {
		if hostname == host || strings.HasSuffix(hostname, "."+host) {
			return true
		}
	}
	return false
}

// RoundTrippers must not modify the request they are given
func deepCopyRequestWithHeaders(request *http.Request) *http.Request {
	newRequest := new(http.Request)
	*newRequest = *request

	newRequest.Header = make(http.Header, len(request.Header))
	for header, values := range request.Header {
		newRequest.Header[header] = append([]string(nil), values...)
	}
	return newRequest
}
