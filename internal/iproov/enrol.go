package iproov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"photoenrol/internal/platform/tracer"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

// Paths relative to the base URL.
const (
	PathEnrolToken  = "/api/v2/claim/enrol/token"
	PathEnrolImage  = "/api/v2/claim/enrol/image"
	PathAccessToken = "/api/v2/%s/access_token"
	PathUser        = "/api/v2/users/%s"
)

// ImageFileName is the filename attached to the uploaded photo part.
const ImageFileName = "image.jpg"

// ImageRotation is always sent as zero; photos are expected upright.
const ImageRotation = "0"

// EnrolTokenRequest is the JSON body of the enrolment token call.
type EnrolTokenRequest struct {
	Resource string `json:"resource"`
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	UserID   string `json:"user_id"`
}

// EnrolImageRequest carries what the photo upload needs beyond credentials.
type EnrolImageRequest struct {
	Token  string
	Image  []byte
	Source string
}

// CreateEnrolToken requests a one-time enrolment token for username.
func (c *Client) CreateEnrolToken(ctx context.Context, username domain.Username) (token string, err error) {
	url := c.baseURL + PathEnrolToken
	ctx, span := c.tracer.Start(ctx, tracer.SpanEnrolToken,
		tracer.String(tracer.AttrUsername, username.String()),
		tracer.String(tracer.AttrURL, url),
	)
	defer func() { span.End(err) }()

	payload, err := json.Marshal(EnrolTokenRequest{
		Resource: c.resource,
		APIKey:   c.apiKey,
		Secret:   c.secret,
		UserID:   username.String(),
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal enrol token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create enrol token request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "getting enrol token",
		"url", url,
		"resource", c.resource,
		"user_id", username.String(),
	)

	body, err := c.send(ctx, span, req, StepCreateToken)
	if err != nil {
		return "", err
	}
	return stringField(body, "token", StepCreateToken)
}

// EnrolImage uploads the photo under a token from CreateEnrolToken.
func (c *Client) EnrolImage(ctx context.Context, in EnrolImageRequest) (err error) {
	url := c.baseURL + PathEnrolImage
	ctx, span := c.tracer.Start(ctx, tracer.SpanEnrolImage,
		tracer.String(tracer.AttrURL, url),
		tracer.Int(tracer.AttrImageBytes, len(in.Image)),
	)
	defer func() { span.End(err) }()

	body, contentType, err := encodeEnrolImage(c.apiKey, c.secret, in)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode enrol image form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create enrol image request")
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.DebugContext(ctx, "sending image for enrolment",
		"url", url,
		"fields", enrolImageFields,
		"image_bytes", len(in.Image),
	)

	_, err = c.send(ctx, span, req, StepEnrolImage)
	return err
}

// enrolImageFields lists the multipart parts in the order they are written.
var enrolImageFields = []string{"api_key", "secret", "rotation", "image", "token", "source"}

func encodeEnrolImage(apiKey, secret string, in EnrolImageRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ name, value string }{
		{"api_key", apiKey},
		{"secret", secret},
		{"rotation", ImageRotation},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("image", ImageFileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(in.Image); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("token", in.Token); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("source", in.Source); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// stringField extracts a top-level string field from a JSON object body.
func stringField(body []byte, field, step string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodePayloadShape,
			fmt.Sprintf("%s: response is not a JSON object", step))
	}
	raw, ok := obj[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", dErrors.New(dErrors.CodePayloadShape,
			fmt.Sprintf("%s: response has no %q field", step, field))
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodePayloadShape,
			fmt.Sprintf("%s: %q is not a string", step, field))
	}
	return value, nil
}
