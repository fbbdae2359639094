package bunq

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ResourceClient reads account data on behalf of an established session
type ResourceClient struct {
	client  *Client
	session *Session
}

// NewResourceClient binds client to session
func NewResourceClient(client *Client, session *Session) *ResourceClient {
	return &ResourceClient{client: client, session: session}
}

// Session returns the session requests are authenticated with
func (r *ResourceClient) Session() *Session {
	return r.session
}

func (r *ResourceClient) get(ctx context.Context, path string) ([]byte, error) {
	return r.client.do(ctx, call{
		method:  http.MethodGet,
		path:    path,
		headers: map[string]string{HeaderAuthentication: r.session.Token},
	})
}

// ListAccounts returns the monetary accounts of the session's user. The
// endpoint is read as a single page.
func (r *ResourceClient) ListAccounts(ctx context.Context) ([]Account, error) {
	raw, err := r.get(ctx, fmt.Sprintf("/v1/user/%d/monetary-account", r.session.UserID))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	res, err := Decode[[]accountWrapper](raw, ModeNormal)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]Account, 0, len(res.Value))
	for _, w := range res.Value {
		acc, ok := w.unwrap()
		if !ok {
			r.client.log.Debug("skipping unsupported monetary account type")
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// ListPayments returns every payment of account, newest first, following
// the older cursor until the last page. On error nothing is returned.
func (r *ResourceClient) ListPayments(ctx context.Context, account Account) ([]Payment, error) {
	path := fmt.Sprintf("/v1/user/%d/monetary-account/%d/payment", r.session.UserID, account.ID)
	if r.client.config.PageSize > 0 {
		path = fmt.Sprintf("%s?count=%d", path, r.client.config.PageSize)
	}

	var all []Payment
	for page := 1; ; page++ {
		payments, pagination, err := r.paymentPage(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("list payments of account %d (page %d): %w", account.ID, page, err)
		}
		all = append(all, payments...)

		older, ok := pagination.Older()
		if !ok {
			r.client.log.Debug("payments listed",
				zap.Int64("account_id", account.ID),
				zap.Int("pages", page),
				zap.Int("payments", len(all)))
			return all, nil
		}
		path = older
	}
}

func (r *ResourceClient) paymentPage(ctx context.Context, path string) ([]Payment, *Pagination, error) {
	raw, err := r.get(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	res, err := Decode[[]paymentWrapper](raw, ModeNormal)
	if err != nil {
		return nil, nil, err
	}
	payments := make([]Payment, 0, len(res.Value))
	for i, w := range res.Value {
		if w.Payment == nil {
			return nil, nil, decodeErr("element %d has no Payment", i)
		}
		payments = append(payments, *w.Payment)
	}
	return payments, res.Pagination, nil
}
