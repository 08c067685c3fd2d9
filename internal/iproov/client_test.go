package iproov_test

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks HTTPDoer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"photoenrol/internal/iproov"
	"photoenrol/internal/iproov/mocks"
	"photoenrol/internal/iproov/mockserver"
	"photoenrol/internal/platform/metrics"
	"photoenrol/pkg/domain"
	dErrors "photoenrol/pkg/domain-errors"
)

var testRunID = domain.NewRunID()

func newClient(t *testing.T, baseURL string, doer iproov.HTTPDoer) (*iproov.Client, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return iproov.NewClient(iproov.Config{
		BaseURL:       baseURL,
		APIKey:        "sp-key",
		Secret:        "sp-secret",
		OAuthUsername: "oauth-user",
		OAuthPassword: "oauth-pw",
		Resource:      "photo_enrol_test",
		UserAgent:     "photoenrol/test",
		RunID:         testRunID,
		HTTPClient:    doer,
		Metrics:       m,
	}), m
}

// newHandlerClient serves every request with h.
func newHandlerClient(t *testing.T, h http.HandlerFunc) (*iproov.Client, *metrics.Metrics) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return newClient(t, ts.URL, ts.Client())
}

func TestCreateEnrolToken_Success(t *testing.T) {
	var got iproov.EnrolTokenRequest
	var gotReq *http.Request
	client, m := newHandlerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"abc","pod":"edge"}`)
	})

	token, err := client.CreateEnrolToken(context.Background(), "calm_red_fox")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, iproov.PathEnrolToken, gotReq.URL.Path)
	assert.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	assert.Equal(t, "photoenrol/test", gotReq.Header.Get(iproov.HeaderUserAgent))
	assert.Equal(t, testRunID.String(), gotReq.Header.Get(iproov.HeaderRequestID))
	assert.Equal(t, iproov.EnrolTokenRequest{
		Resource: "photo_enrol_test",
		APIKey:   "sp-key",
		Secret:   "sp-secret",
		UserID:   "calm_red_fox",
	}, got)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.StepRequests.WithLabelValues(iproov.StepCreateToken, metrics.OutcomeSuccess)))
}

func TestCreateEnrolToken_PayloadShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"pod":"edge"}`},
		{"numeric token", `{"token":42}`},
		{"null token", `{"token":null}`},
		{"not an object", `["abc"]`},
		{"not json", `token=abc`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			token, err := client.CreateEnrolToken(context.Background(), "u")
			require.Error(t, err)
			assert.Empty(t, token)
			assert.True(t, dErrors.HasCode(err, dErrors.CodePayloadShape), "got %v", err)
		})
	}
}

func TestCreateEnrolToken_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		class    iproov.StatusClass
		code     dErrors.Code
		contains []string
	}{
		{"bad request", http.StatusBadRequest, `{"error": "invalid_user_id"}`, iproov.ClassClient, dErrors.CodeClientError, []string{"400 Bad Request", `{"error":"invalid_user_id"}`}},
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, iproov.ClassClient, dErrors.CodeClientError, []string{"403", "forbidden"}},
		{"server error", http.StatusBadGateway, `{"error":"upstream"}`, iproov.ClassServer, dErrors.CodeServerError, []string{"502 Bad Gateway", "upstream"}},
		{"plain text server error", http.StatusInternalServerError, "oops", iproov.ClassServer, dErrors.CodeServerError, []string{"500", "oops"}},
		{"not modified", http.StatusNotModified, ``, iproov.ClassUnknown, dErrors.CodeUnknownStatus, []string{"304"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, m := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.CreateEnrolToken(context.Background(), "u")
			require.Error(t, err)

			var se *iproov.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.class, se.Class)
			assert.Equal(t, iproov.StepCreateToken, se.Step)
			assert.True(t, dErrors.HasCode(err, tt.code))
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
			assert.Equal(t, 1.0, promtestutil.ToFloat64(m.StepRequests.WithLabelValues(iproov.StepCreateToken, metrics.OutcomeFailure)))
		})
	}
}

func TestStatusError_Message(t *testing.T) {
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error": "forbidden"}`)
	})

	err := client.EnrolImage(context.Background(), iproov.EnrolImageRequest{Token: "t", Image: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, `Client Error during "enrol image": <403 Forbidden, {"error":"forbidden"}>`, err.Error())

	var se *iproov.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, map[string]any{"error": "forbidden"}, se.ErrorBody())
}

func TestCreateEnrolToken_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	baseURL := ts.URL
	ts.Close()

	client, m := newClient(t, baseURL, &http.Client{Timeout: time.Second})
	_, err := client.CreateEnrolToken(context.Background(), "u")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.StepRequests.WithLabelValues(iproov.StepCreateToken, metrics.OutcomeFailure)))
}

func TestCreateEnrolToken_DoerErrorWithCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(nil, context.Canceled)

	client, _ := newClient(t, "https://eu.secure.iproov.me", doer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateEnrolToken(ctx, "u")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateEnrolToken_UsesRegionURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://eu.secure.iproov.me/api/v2/claim/enrol/token", r.URL.String())
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"token":"abc"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, _ := newClient(t, "https://eu.secure.iproov.me", doer)
	token, err := client.CreateEnrolToken(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestEnrolImage_MultipartParts(t *testing.T) {
	type part struct {
		name, filename, value string
	}
	var parts []part
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, iproov.PathEnrolImage, r.URL.Path)
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err)
			data, err := io.ReadAll(p)
			require.NoError(t, err)
			parts = append(parts, part{p.FormName(), p.FileName(), string(data)})
		}
		w.WriteHeader(http.StatusOK)
	})

	err := client.EnrolImage(context.Background(), iproov.EnrolImageRequest{
		Token:  "tok-1",
		Image:  []byte("0123456789"),
		Source: "oid",
	})
	require.NoError(t, err)

	assert.Equal(t, []part{
		{"api_key", "", "sp-key"},
		{"secret", "", "sp-secret"},
		{"rotation", "", "0"},
		{"image", "image.jpg", "0123456789"},
		{"token", "", "tok-1"},
		{"source", "", "oid"},
	}, parts)
}

func TestAccessToken_Success(t *testing.T) {
	server := mockserver.New(mockserver.WithCredentials(mockserver.Credentials{
		APIKey: "sp-key", OAuthUsername: "oauth-user", OAuthPassword: "oauth-pw",
	}))
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	client, m := newClient(t, ts.URL, ts.Client())

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	calls := server.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/v2/sp-key/access_token", calls[0].Path)
	assert.Equal(t, "client_credentials", calls[0].Form.Get("grant_type"))
	assert.Equal(t, "oauth-user", calls[0].BasicUser)
	assert.Equal(t, "oauth-pw", calls[0].BasicPass)
	assert.Equal(t, testRunID.String(), calls[0].Header.Get(iproov.HeaderRequestID))
	assert.Equal(t, "photoenrol/test", calls[0].Header.Get(iproov.HeaderUserAgent))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.StepRequests.WithLabelValues(iproov.StepGenerateAccessToken, metrics.OutcomeSuccess)))
}

func TestAccessToken_BasicCredentialsSentUnescaped(t *testing.T) {
	var user, pass string
	var ok bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"acc-1","token_type":"Bearer"}`))
	}))
	t.Cleanup(ts.Close)
	client := iproov.NewClient(iproov.Config{
		BaseURL:       ts.URL,
		APIKey:        "sp-key",
		OAuthUsername: "svc@acme",
		OAuthPassword: "p+ss/w=rd",
		HTTPClient:    ts.Client(),
	})

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", token)
	require.True(t, ok)
	assert.Equal(t, "svc@acme", user)
	assert.Equal(t, "p+ss/w=rd", pass)
}

func TestAccessToken_ReservedCharacterCredentialsAcceptedByMock(t *testing.T) {
	server := mockserver.New(mockserver.WithCredentials(mockserver.Credentials{
		APIKey: "sp-key", OAuthUsername: "svc@acme", OAuthPassword: "p+ss/w=rd",
	}))
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	client := iproov.NewClient(iproov.Config{
		BaseURL:       ts.URL,
		APIKey:        "sp-key",
		OAuthUsername: "svc@acme",
		OAuthPassword: "p+ss/w=rd",
		HTTPClient:    ts.Client(),
	})

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAccessToken_JSONBodyReadRegardlessOfContentType(t *testing.T) {
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"access_token":"tok"}`))
	})

	token, err := client.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestAccessToken_FormBodyIsPayloadShape(t *testing.T) {
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte(`access_token=tok&token_type=bearer`))
	})

	_, err := client.AccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePayloadShape), "got %v", err)
}

func TestAccessToken_Unauthorized(t *testing.T) {
	server := mockserver.New()
	server.Script(mockserver.EndpointAccessToken, mockserver.Response{
		Status: http.StatusUnauthorized,
		Body:   map[string]string{"error": "invalid_client"},
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	client, _ := newClient(t, ts.URL, ts.Client())

	_, err := client.AccessToken(context.Background())
	require.Error(t, err)

	var se *iproov.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, iproov.StepGenerateAccessToken, se.Step)
	assert.Contains(t, err.Error(), "invalid_client")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeClientError))
}

func TestAccessToken_ServerError(t *testing.T) {
	server := mockserver.New()
	server.Script(mockserver.EndpointAccessToken, mockserver.Response{
		Status: http.StatusServiceUnavailable,
		Body:   map[string]string{"error": "maintenance"},
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	client, _ := newClient(t, ts.URL, ts.Client())

	_, err := client.AccessToken(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeServerError))
}

func TestAccessToken_MissingField(t *testing.T) {
	server := mockserver.New()
	server.Script(mockserver.EndpointAccessToken, mockserver.Response{
		Status: http.StatusOK,
		Body:   map[string]any{"token_type": "Bearer", "expires_in": 60},
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	client, _ := newClient(t, ts.URL, ts.Client())

	_, err := client.AccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePayloadShape), "got %v", err)
}

func TestAccessToken_EmptyTokenIsPayloadShape(t *testing.T) {
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"","token_type":"Bearer"}`))
	})

	token, err := client.AccessToken(context.Background())
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePayloadShape), "got %v", err)
}

func TestAccessToken_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockHTTPDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(nil, errors.New("dial tcp: connection refused"))

	client, _ := newClient(t, "https://eu.secure.iproov.me", doer)
	_, err := client.AccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport), "got %v", err)
}

func TestDeleteUser_SendsBearer(t *testing.T) {
	var gotReq *http.Request
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.WriteHeader(http.StatusOK)
	})

	err := client.DeleteUser(context.Background(), "acc-123", "calm_red_fox")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotReq.Method)
	assert.Equal(t, "/api/v2/users/calm_red_fox", gotReq.URL.Path)
	assert.Equal(t, "Bearer acc-123", gotReq.Header.Get("Authorization"))
}

func TestDeleteUser_NotFound(t *testing.T) {
	client, _ := newHandlerClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"user_not_found"}`)
	})

	err := client.DeleteUser(context.Background(), "acc", "ghost")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeClientError))
	assert.Contains(t, err.Error(), `"delete user"`)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		class  iproov.StatusClass
		ok     bool
	}{
		{200, "", true},
		{201, "", true},
		{204, "", true},
		{101, iproov.ClassUnknown, false},
		{302, iproov.ClassUnknown, false},
		{400, iproov.ClassClient, false},
		{499, iproov.ClassClient, false},
		{500, iproov.ClassServer, false},
		{599, iproov.ClassServer, false},
		{600, iproov.ClassUnknown, false},
	}
	for _, tt := range tests {
		class, ok := iproov.Classify(tt.status)
		assert.Equal(t, tt.class, class, "status %d", tt.status)
		assert.Equal(t, tt.ok, ok, "status %d", tt.status)
	}
}

func TestInspectAccessToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sp-key",
		Issuer:    "iproov",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	info, ok := iproov.InspectAccessToken(signed)
	require.True(t, ok)
	assert.Equal(t, "sp-key", info.Subject)
	assert.Equal(t, "iproov", info.Issuer)
	assert.True(t, exp.Equal(info.ExpiresAt))

	_, ok = iproov.InspectAccessToken("opaque-token")
	assert.False(t, ok)
}
