package db

import (
	"context"
	"net/http"
	"testing"
	"time"

	"scrapebridge/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestCookieRoundTrip(t *testing.T) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "twitter-session",
		DbSchema: Schema,
	})
	defer cleanup()

	store := NewStore(result.DB)
	ctx := context.Background()

	cookies := []*http.Cookie{
		{
			Name:    "auth_token",
			Value:   "deadbeef",
			Domain:  "twitter.com",
			Path:    "/",
			Expires: time.Now().Add(time.Hour * 24),
		},
		{
			Name:    "ct0",
			Value:   "csrf",
			Domain:  "api.twitter.com",
			Path:    "/",
			Expires: time.Now().Add(time.Hour * 24),
		},
	}
	require.NoError(t, store.SaveCookies(ctx, cookies))

	loaded, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range loaded {
		byName[c.Name] = c
	}
	require.Equal(t, "deadbeef", byName["auth_token"].Value)
	require.Equal(t, "twitter.com", byName["auth_token"].Domain)
	require.Equal(t, "api.twitter.com", byName["ct0"].Domain)
}

func TestSaveReplacesPreviousSession(t *testing.T) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "twitter-session",
		DbSchema: Schema,
	})
	defer cleanup()

	store := NewStore(result.DB)
	ctx := context.Background()

	first := []*http.Cookie{{Name: "auth_token", Value: "old", Domain: "twitter.com", Path: "/"}}
	require.NoError(t, store.SaveCookies(ctx, first))

	second := []*http.Cookie{{Name: "auth_token", Value: "new", Domain: "twitter.com", Path: "/"}}
	require.NoError(t, store.SaveCookies(ctx, second))

	loaded, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "new", loaded[0].Value)
}

func TestLoadSkipsExpiredCookies(t *testing.T) {
	result, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "twitter-session",
		DbSchema: Schema,
	})
	defer cleanup()

	store := NewStore(result.DB)
	ctx := context.Background()

	cookies := []*http.Cookie{
		{Name: "stale", Value: "x", Domain: "twitter.com", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "fresh", Value: "y", Domain: "twitter.com", Path: "/", Expires: time.Now().Add(time.Hour)},
	}
	require.NoError(t, store.SaveCookies(ctx, cookies))

	loaded, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "fresh", loaded[0].Name)
}
