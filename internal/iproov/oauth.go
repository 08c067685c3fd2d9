package iproov

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"photoenrol/internal/platform/privacy"
	"photoenrol/internal/platform/tracer"
	dErrors "photoenrol/pkg/domain-errors"
)

// AccessToken exchanges the OAuth client credentials for a bearer token using
// the client-credentials grant with HTTP Basic client authentication.
func (c *Client) AccessToken(ctx context.Context) (accessToken string, err error) {
	tokenURL := c.baseURL + fmt.Sprintf(PathAccessToken, url.PathEscape(c.apiKey))
	loggedURL := privacy.RedactSecret(tokenURL, url.PathEscape(c.apiKey))
	ctx, span := c.tracer.Start(ctx, tracer.SpanAccessToken,
		tracer.String(tracer.AttrURL, loggedURL),
	)
	defer func() { span.End(err) }()

	cc := clientcredentials.Config{
		ClientID:     c.oauthUsername,
		ClientSecret: c.oauthPassword,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: doerTransport{c: c}})

	c.logger.DebugContext(ctx, "getting oauth access token", "url", loggedURL)

	start := time.Now()
	tok, err := cc.Token(ctx)
	err = c.accessTokenError(ctx, err)
	c.metrics.ObserveStep(StepGenerateAccessToken, time.Since(start), err)
	if err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, StepGenerateAccessToken+" succeeded",
		"step", StepGenerateAccessToken,
		"token_type", tok.Type(),
	)
	c.logTokenInfo(ctx, tok)
	return tok.AccessToken, nil
}

// accessTokenError maps oauth2 failures onto the same taxonomy as send.
func (c *Client) accessTokenError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		if classified := classify(rErr.Response.StatusCode, rErr.Body, StepGenerateAccessToken); classified != nil {
			return classified
		}
	}
	var uErr *url.Error
	if errors.As(err, &uErr) || ctx.Err() != nil {
		return transportError(ctx, StepGenerateAccessToken, err)
	}
	return dErrors.Wrap(err, dErrors.CodePayloadShape,
		StepGenerateAccessToken+": "+err.Error())
}

// doerTransport lets oauth2 reuse the client's HTTPDoer and headers. It sends
// the Basic credentials unescaped and marks 2xx bodies as JSON so oauth2
// never falls back to form decoding.
type doerTransport struct {
	c *Client
}

func (t doerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	t.c.decorate(out)
	out.SetBasicAuth(t.c.oauthUsername, t.c.oauthPassword)
	resp, err := t.c.client.Do(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}

// logTokenInfo logs the token's expiry at debug level without the token itself.
func (c *Client) logTokenInfo(ctx context.Context, tok *oauth2.Token) {
	attrs := []any{"step", StepGenerateAccessToken}
	if !tok.Expiry.IsZero() {
		attrs = append(attrs, "expires_at", tok.Expiry.UTC().Format(time.RFC3339))
	}
	if info, ok := InspectAccessToken(tok.AccessToken); ok {
		attrs = append(attrs, "jwt", true, "subject", info.Subject)
		if !info.ExpiresAt.IsZero() {
			attrs = append(attrs, "jwt_expires_at", info.ExpiresAt.UTC().Format(time.RFC3339))
		}
	}
	c.logger.DebugContext(ctx, "access token issued", attrs...)
}
