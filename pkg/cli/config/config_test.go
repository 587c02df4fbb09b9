package config

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestRepositoryConfigure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		r := &Repository{backend: "memory"}

		repo, err := r.Configure(context.Background())
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.Value(t, r.Backend()).Equal("memory")
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore backend requires project id", func(t *testing.T) {
		r := &Repository{backend: "firestore"}

		_, err := r.Configure(context.Background())
		gt.Error(t, err)
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		r := &Repository{backend: "bolt"}

		_, err := r.Configure(context.Background())
		gt.Error(t, err)
	})
}

func TestSentryLogAttrs(t *testing.T) {
	t.Run("disabled without DSN", func(t *testing.T) {
		s := &Sentry{env: "dev"}

		attrs := s.LogAttrs()
		gt.Array(t, attrs).Length(2)
		gt.Value(t, attrs[0].Key).Equal("enabled")
		gt.Bool(t, attrs[0].Value.Bool()).False()
		gt.Value(t, attrs[1].Value.String()).Equal("dev")
	})

	t.Run("enabled with DSN", func(t *testing.T) {
		s := &Sentry{dsn: "https://key@sentry.example/1"}

		attrs := s.LogAttrs()
		gt.Bool(t, attrs[0].Value.Bool()).True()
	})
}

func TestSentryConfigureDisabled(t *testing.T) {
	closer, err := (&Sentry{}).Configure("test")
	gt.NoError(t, err).Required()
	gt.Value(t, closer).NotNil()
	closer()
}

func TestGeminiLogAttrs(t *testing.T) {
	g := &Gemini{projectID: "proj-1", location: "us-central1"}

	attrs := g.LogAttrs()
	gt.Array(t, attrs).Length(2)
	gt.Value(t, attrs[0].Value.String()).Equal("proj-1")
	gt.Value(t, attrs[1].Value.String()).Equal("us-central1")
}

func TestGeminiConfigureRequiresProject(t *testing.T) {
	_, err := (&Gemini{}).Configure(context.Background())
	gt.Error(t, err)
}
