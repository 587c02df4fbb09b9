package errutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/utils/errutil"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

func newCapturedCtx() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelDebug, logging.FormatJSON)
	return logging.With(context.Background(), logger), &buf
}

func TestHandle(t *testing.T) {
	t.Run("nil error is a no-op", func(t *testing.T) {
		ctx, buf := newCapturedCtx()
		gt.NoError(t, errutil.Handle(ctx, nil, "should not log"))
		gt.Value(t, buf.Len()).Equal(0)
	})

	t.Run("logs goerr values and returns the error", func(t *testing.T) {
		ctx, buf := newCapturedCtx()
		err := goerr.New("store unavailable", goerr.V("backend", "firestore"))

		got := errutil.Handle(ctx, err, "index rebuild failed")
		gt.Value(t, got).Equal(err)

		out := buf.String()
		gt.Bool(t, strings.Contains(out, "index rebuild failed")).True()
		gt.Bool(t, strings.Contains(out, "store unavailable")).True()
		gt.Bool(t, strings.Contains(out, "firestore")).True()
	})
}

func TestHandleHTTP(t *testing.T) {
	ctx, buf := newCapturedCtx()
	rec := httptest.NewRecorder()

	errutil.HandleHTTP(ctx, rec, goerr.New("bad payload"), http.StatusBadRequest)

	gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	gt.Bool(t, strings.Contains(rec.Body.String(), "bad payload")).True()
	gt.Bool(t, strings.Contains(buf.String(), "bad payload")).True()
}
