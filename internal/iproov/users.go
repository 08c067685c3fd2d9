package iproov

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"photoenrol/internal/platform/tracer"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

// DeleteUser removes an enrolled user, authenticating with a bearer token
// from AccessToken.
func (c *Client) DeleteUser(ctx context.Context, accessToken string, username domain.Username) (err error) {
	userURL := c.baseURL + fmt.Sprintf(PathUser, url.PathEscape(username.String()))
	ctx, span := c.tracer.Start(ctx, tracer.SpanDeleteUser,
		tracer.String(tracer.AttrUsername, username.String()),
		tracer.String(tracer.AttrURL, userURL),
	)
	defer func() { span.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, userURL, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create delete user request")
	}
	req.Header.Set("Authorization", domain.BearerAuthorization(accessToken))

	c.logger.DebugContext(ctx, "deleting user", "url", userURL)

	if _, err = c.send(ctx, span, req, StepDeleteUser); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "user '"+username.String()+"' deleted", "username", username.String())
	return nil
}
