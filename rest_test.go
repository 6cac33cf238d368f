package gamenight_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gamenight "github.com/WelcomerTeam/Gamenight"
	"github.com/WelcomerTeam/Gamenight/discord"
	"github.com/WelcomerTeam/Gamenight/gamejson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newRESTClient(t *testing.T, handler http.HandlerFunc) (*gamenight.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	configuration := gamenight.DefaultConfiguration()
	configuration.Token = "token"
	configuration.REST.BaseURL = server.URL
	configuration.REST.RetryBudget = 2 * time.Second

	client, err := gamenight.NewClient(zerolog.Nop(), configuration, gamenight.EventHandlers{})
	require.NoError(t, err)

	client.REST.RetryInterval = 10 * time.Millisecond

	return client, server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

const rateLimitedBody = `{"message":"You are being rate limited.","retry_after":0.05,"global":false}`

func TestRequestRetriesRateLimited(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Inc() == 1 {
			w.Header().Set(gamenight.HeaderRateLimitRemaining, "0")
			w.Header().Set(gamenight.HeaderRateLimitResetAfter, "0.05")
			writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)

			return
		}

		writeJSON(w, http.StatusOK, `{"id":"80351110224678912","username":"gamenight"}`)
	})

	user, err := client.GetCurrentUser(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gamenight", user.Username)
	assert.Equal(t, discord.Snowflake(80351110224678912), user.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestGivesUpAfterBudget(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)
	})

	client.REST.RetryBudget = 200 * time.Millisecond

	start := time.Now()
	_, err := client.GetCurrentUser(context.Background())
	require.Error(t, err)

	assert.Equal(t, http.StatusTooManyRequests, gamenight.StatusCode(err))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRequestBudgetBoundsBucketWait(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		w.Header().Set(gamenight.HeaderRateLimitRemaining, "0")
		w.Header().Set(gamenight.HeaderRateLimitResetAfter, "3")
		writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)
	})

	client.REST.RetryBudget = 500 * time.Millisecond

	start := time.Now()
	_, err := client.GetCurrentUser(context.Background())
	require.Error(t, err)

	assert.Equal(t, http.StatusTooManyRequests, gamenight.StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRequestStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)
	})

	client.REST.RetryBudget = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := client.GetCurrentUser(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestDecodesRemoteError(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		writeJSON(w, http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`)
	})

	_, err := client.GetChannel(context.Background(), 1234)
	require.Error(t, err)

	var restErr *discord.RestError
	require.ErrorAs(t, err, &restErr)

	assert.Equal(t, http.StatusNotFound, restErr.StatusCode)
	assert.Equal(t, int32(10003), restErr.Message.Code)
	assert.Equal(t, "/channels/1234", restErr.Path)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestServerErrorIsPermanent(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Inc()
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := client.DeleteMessage(context.Background(), 1, 2)
	require.Error(t, err)

	var statusErr *gamenight.StatusError
	require.ErrorAs(t, err, &statusErr)

	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, http.MethodDelete, statusErr.Method)
	assert.Equal(t, "/channels/{channel_id}/messages/{message_id}", statusErr.Route)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestNoContent(t *testing.T) {
	t.Parallel()

	var method, path string

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteMessage(context.Background(), 10, 20))

	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/channels/10/messages/20", path)
}

func TestRequestDecodeFailure(t *testing.T) {
	t.Parallel()

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": [}`)
	})

	_, err := client.GetCurrentUser(context.Background())
	assert.ErrorIs(t, err, gamenight.ErrDecode)
}

func TestRequestTransportFailure(t *testing.T) {
	t.Parallel()

	client, server := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.GetCurrentUser(context.Background())
	assert.ErrorIs(t, err, gamenight.ErrTransport)
}

func TestRequestHeaders(t *testing.T) {
	t.Parallel()

	var authorization, userAgent, contentType string

	var body map[string]any

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		userAgent = r.Header.Get("User-Agent")
		contentType = r.Header.Get("Content-Type")
		_ = gamejson.UnmarshalReader(r.Body, &body)

		writeJSON(w, http.StatusOK, `{"id":"5","channel_id":"1","content":"hi"}`)
	})

	message, err := client.CreateMessage(context.Background(), 1, discord.MessageParams{Content: "hi"})
	require.NoError(t, err)

	assert.Equal(t, discord.Snowflake(5), message.ID)
	assert.Equal(t, "Bot token", authorization)
	assert.Equal(t, gamenight.DefaultUserAgent, userAgent)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "hi", body["content"])
}

func TestRequestMultipart(t *testing.T) {
	t.Parallel()

	var payload, fileName, fileBody string

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		payload = r.MultipartForm.Value["payload_json"][0]

		if headers := r.MultipartForm.File["files[0]"]; len(headers) == 1 {
			fileName = headers[0].Filename

			file, err := headers[0].Open()
			if err == nil {
				data, _ := io.ReadAll(file)
				fileBody = string(data)
				file.Close()
			}
		}

		writeJSON(w, http.StatusOK, `{"id":"5"}`)
	})

	_, err := client.CreateMessage(context.Background(), 1,
		discord.MessageParams{Content: "scores"},
		discord.File{Name: "scores.txt", Reader: strings.NewReader("alice 3")},
	)
	require.NoError(t, err)

	assert.Contains(t, payload, `"content":"scores"`)
	assert.Equal(t, "scores.txt", fileName)
	assert.Equal(t, "alice 3", fileBody)
}

func TestRequestRecordsSynthesizedLimit(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Inc() == 1 {
			w.Header().Set(gamenight.HeaderRateLimitResetAfter, "0.05")
			writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)

			return
		}

		writeJSON(w, http.StatusOK, `{"id":"1"}`)
	})

	_, err := client.GetCurrentUser(context.Background())
	require.NoError(t, err)

	remaining, _, ok := client.RateLimiter.Bucket(gamenight.RouteGetCurrentUser().Bucket)
	assert.True(t, ok)
	assert.Equal(t, int64(0), remaining)
}

func TestRequestReactionRetriesAreQuiet(t *testing.T) {
	t.Parallel()

	calls := atomic.NewInt32(0)

	client, _ := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Inc()%2 == 1 {
			writeJSON(w, http.StatusTooManyRequests, rateLimitedBody)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	var logs bytes.Buffer
	client.REST.Logger = zerolog.New(&logs)

	require.NoError(t, client.CreateReaction(context.Background(), 1, 2, "🎲"))
	assert.NotContains(t, logs.String(), "Retrying request")

	require.NoError(t, client.DeleteOwnReaction(context.Background(), 1, 2, "🎲"))
	assert.Contains(t, logs.String(), "Retrying request")
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, gamenight.StatusCode(errors.New("plain")))
	assert.Equal(t, 500, gamenight.StatusCode(&gamenight.StatusError{StatusCode: 500}))
	assert.Equal(t, 403, gamenight.StatusCode(&discord.RestError{StatusCode: 403, Message: &discord.ErrorMessage{}}))
}
