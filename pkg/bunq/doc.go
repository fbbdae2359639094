// Package bunq provides a client for the bunq public API.
//
// Before any account data can be read the API requires a three step
// handshake. The first two steps run once per installation, the third on
// every run:
//
//  1. Installation: a freshly generated RSA key is registered by POSTing its
//     public half to /v1/installation. The response carries an installation
//     token.
//  2. Device registration: the API key is bound to the installation by
//     POSTing to /v1/device-server, authenticated with the installation
//     token. The token then serves as the device token.
//  3. Session creation: a request signed with the private key is POSTed to
//     /v1/session-server and answered with a session token and the id of the
//     authenticated user.
//
// The private key and device token are persisted through a CredentialStore;
// the session is returned as a plain value and never stored.
//
// # Response envelope
//
// Every response is wrapped as {"Response": [...], "Pagination": {...}}.
// List endpoints put one typed object per array element (ModeNormal). The
// handshake endpoints instead split a single logical object over several
// single-key elements, [{"Id": ...}, {"Token": ...}], which are merged before
// decoding (ModeFlattened).
//
// # Basic Usage
//
//	client := bunq.NewClient(&bunq.ClientConfig{
//	    BaseURL: bunq.SandboxURL,
//	})
//
//	session, err := bunq.NewHandshaker(client, store).Establish(ctx)
//	if err != nil {
//	    return err
//	}
//
//	resources := bunq.NewResourceClient(client, session)
//	accounts, err := resources.ListAccounts(ctx)
//	// ...
//	payments, err := resources.ListPayments(ctx, accounts[0])
//
// # Error Handling
//
// Errors wrap one of ErrTransport, ErrHTTPStatus, ErrDecode, ErrCrypto or
// ErrPersistence. Non-2xx answers are returned as *StatusError:
//
//	var statusErr *bunq.StatusError
//	if errors.As(err, &statusErr) && statusErr.Unauthorized() {
//	    // stale device or expired session
//	}
//
// Nothing is retried. A failed page aborts the whole listing.
package bunq
