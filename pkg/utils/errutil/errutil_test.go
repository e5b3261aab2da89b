package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/utils/errutil"
)

func TestHandleHTTP(t *testing.T) {
	t.Run("client error exposes message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("bad form key"), http.StatusBadRequest)

		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		var resp errutil.ErrorResponse
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		gt.Value(t, resp.Error).Equal("bad form key")
	})

	t.Run("server error hides detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("dial tcp 10.0.0.1: refused"), http.StatusInternalServerError)

		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("application/json")
		var resp errutil.ErrorResponse
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		gt.Value(t, resp.Error).Equal("Internal Server Error")
	})
}

func TestHandle_ReturnsError(t *testing.T) {
	err := goerr.New("boom")
	gt.Value(t, errutil.Handle(context.Background(), err, "failed")).Equal(error(err))
	gt.NoError(t, errutil.Handle(context.Background(), nil, "noop"))
}

func TestHandle_ReportsGoerrValues(t *testing.T) {
	var captured *sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			captured = event
			return nil
		},
	})
	gt.NoError(t, err).Required()

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	errutil.Handle(ctx, goerr.New("publish failed", goerr.V("form_key", "PROPERTY")), "failed to publish")

	gt.Value(t, captured).NotNil()
	gt.Map(t, captured.Contexts).HasKey("goerr")
	gt.Value(t, captured.Contexts["goerr"]["form_key"]).Equal(any("PROPERTY"))
	gt.Value(t, captured.Tags["message"]).Equal("failed to publish")
}
