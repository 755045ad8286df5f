package brouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lintang-b-s/brouter-client/pkg/datastructure"
	"github.com/lintang-b-s/brouter-client/pkg/engine"
	"github.com/lintang-b-s/brouter-client/pkg/geo"
	"github.com/lintang-b-s/brouter-client/pkg/metrics"
	"github.com/lintang-b-s/brouter-client/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRemoteRouter(t *testing.T, handler http.HandlerFunc, opts ...RouterOption) (*Router, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend, err := NewRemoteBackend(srv.URL, zap.NewNop())
	require.NoError(t, err)
	return NewRouter(backend, zap.NewNop(), opts...), srv
}

func assertAmsterdamUtrecht(t *testing.T, route *datastructure.Route) {
	t.Helper()
	require.GreaterOrEqual(t, len(route.Points), 2)
	assert.True(t, route.Points[0].ApproxEqual(amsterdam, 1e-6))
	assert.True(t, route.Points[len(route.Points)-1].ApproxEqual(utrecht, 1e-6))
	assert.Greater(t, route.Length, 0.0)
}

func TestRemoteRoute(t *testing.T) {
	var gotQuery string
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/brouter", r.URL.Path)
		gotQuery = r.URL.RawQuery
		q := r.URL.Query()
		assert.Equal(t, "4.9041,52.3676|5.1214,52.0907", q.Get("lonlats"))
		assert.Equal(t, "trekking", q.Get("profile"))
		assert.Equal(t, "gpx", q.Get("format"))
		w.Header().Set("Content-Type", "application/gpx+xml")
		_, _ = io.WriteString(w, trekkingGPX)
	})

	route, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.NoError(t, err)
	assertAmsterdamUtrecht(t, route)
	assert.Contains(t, gotQuery, "profile=trekking")
	assert.Contains(t, gotQuery, "52.3676")
	assert.Contains(t, gotQuery, "52.0907")
}

func TestLocalRoute(t *testing.T) {
	e, argsFile := newStubEngine(t, trekkingGPX)
	router := NewRouter(NewLocalBackend(e, engine.ArchiveSource{}, zap.NewNop()), zap.NewNop())

	route, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.NoError(t, err)
	assertAmsterdamUtrecht(t, route)
	assert.Equal(t, engine.StateReady, e.State())

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-lonlats 4.9041,52.3676|5.1214,52.0907 -profile trekking -format gpx")
}

func TestRemoteAndLocalAgree(t *testing.T) {
	remote, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, trekkingGPX)
	})
	e, _ := newStubEngine(t, trekkingGPX)
	local := NewRouter(NewLocalBackend(e, engine.ArchiveSource{}, zap.NewNop()), zap.NewNop())

	points := []geo.Coordinate{amsterdam, utrecht}
	r1, err := remote.Route(context.Background(), points, "trekking")
	require.NoError(t, err)
	r2, err := local.Route(context.Background(), points, "trekking")
	require.NoError(t, err)
	assert.Equal(t, r1.Points, r2.Points)
	assert.Equal(t, r1.Length, r2.Length)
}

func TestRouteEmpty(t *testing.T) {
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, emptyGPX)
	})

	_, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyRoute)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestRouteRemoteTimeout(t *testing.T) {
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, WithTimeout(time.Millisecond))

	start := time.Now()
	_, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteTimeout)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, util.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRouteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	backend, err := NewRemoteBackend(url, zap.NewNop())
	require.NoError(t, err)
	_, err = NewRouter(backend, zap.NewNop()).Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.False(t, util.IsTimeout(err))
}

func TestRouteRemoteStatusError(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		wantKind error
	}{
		{name: "server failure", status: http.StatusInternalServerError, body: "internal error", wantKind: ErrRemote},
		{name: "missing segment", status: http.StatusBadRequest, body: "datafile W75_N40.rd5 not found", wantKind: ErrMissingDataFile},
		{name: "no route", status: http.StatusBadRequest, body: "no track found at pass=0", wantKind: ErrNoRouteFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tc.body, tc.status)
			})

			_, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantKind)
			assert.ErrorIs(t, err, ErrRemote)

			var statusErr *util.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.StatusCode)
			assert.Contains(t, statusErr.Body, tc.body)
		})
	}
}

func TestRouteRejectsBadInputWithoutCallingBackend(t *testing.T) {
	called := false
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := router.Route(context.Background(), []geo.Coordinate{amsterdam}, "trekking")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "tre king")
	assert.ErrorIs(t, err, ErrInvalidProfile)
	_, err = router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking", WithFormat(FormatGeoJSON))
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.False(t, called)
}

func TestFetchRawFormat(t *testing.T) {
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "geojson", r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, `{"type":"FeatureCollection"}`)
	})

	req, err := router.Build([]geo.Coordinate{amsterdam, utrecht}, "trekking", WithFormat(FormatGeoJSON))
	require.NoError(t, err)
	body, err := router.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection"}`, string(body))
}

func TestLocalRouteExecutionFailure(t *testing.T) {
	e, _ := newStubEngine(t, trekkingGPX)
	script := "#!/bin/sh\necho 'datafile E5_N50.rd5 not found' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(e.Root()+"/"+engine.BundleDir+"/brouter.sh", []byte(script), 0o755))
	router := NewRouter(NewLocalBackend(e, engine.ArchiveSource{}, zap.NewNop()), zap.NewNop())

	_, err := router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocalEngineExecutionFailed)
	assert.ErrorIs(t, err, ErrMissingDataFile)
}

func TestLocalRouteWithoutBundle(t *testing.T) {
	e, err := engine.New(engine.Config{CacheDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	router := NewRouter(NewLocalBackend(e, engine.ArchiveSource{}, zap.NewNop()), zap.NewNop())

	_, err = router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	assert.ErrorIs(t, err, ErrLocalEngineUnavailable)
	assert.Equal(t, engine.StateFailed, e.State())
}

func TestAlternatives(t *testing.T) {
	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alternativeidx") == "2" {
			http.Error(w, "no track found at pass=1", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, trekkingGPX)
	})

	alts, err := router.Alternatives(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking", 3)
	require.NoError(t, err)
	require.Len(t, alts, 3)
	for i, alt := range alts {
		assert.Equal(t, i, alt.Index)
		if i == 2 {
			assert.ErrorIs(t, alt.Err, ErrNoRouteFound)
			continue
		}
		require.NoError(t, alt.Err)
		assertAmsterdamUtrecht(t, alt.Route)
	}

	_, err = router.Alternatives(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking", 5)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestUploadProfile(t *testing.T) {
	testCases := []struct {
		name    string
		reply   string
		wantID  string
		wantErr error
	}{
		{name: "accepted", reply: `{"profileid":"custom_1700000000000"}`, wantID: "custom_1700000000000"},
		{name: "rejected", reply: `{"error":"syntax error at line 3"}`, wantErr: ErrProfileUpload},
		{name: "garbage", reply: `<html>`, wantErr: ErrMalformedResponse},
		{name: "unsafe id", reply: `{"profileid":"../x"}`, wantErr: ErrMalformedResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/brouter/profile", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				assert.Contains(t, string(body), "context:global")
				_, _ = io.WriteString(w, tc.reply)
			})

			id, err := router.UploadProfile(context.Background(), []byte("---context:global\n"))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestLocalUploadProfile(t *testing.T) {
	e, _ := newStubEngine(t, trekkingGPX)
	router := NewRouter(NewLocalBackend(e, engine.ArchiveSource{}, zap.NewNop()), zap.NewNop())

	id, err := router.UploadProfile(context.Background(), []byte("---context:global\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "custom_"))
	assert.FileExists(t, e.CustomProfilesDir()+"/"+id+".brf")
}

func TestRouterMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetric(reg)
	require.NoError(t, err)

	router, _ := newRemoteRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, emptyGPX)
	}, WithMetric(m))

	_, err = router.Route(context.Background(), []geo.Coordinate{amsterdam, utrecht}, "trekking")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(reg, "brouter_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewRouterFromConfig(t *testing.T) {
	router, err := NewRouterFromConfig(util.Config{Backend: util.BackendRemote, RemoteURL: "https://brouter.de", Timeout: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "remote", router.Backend().Name())
	assert.Equal(t, time.Minute, router.timeout)

	router, err = NewRouterFromConfig(util.Config{Backend: util.BackendLocal, CacheDir: t.TempDir(), DownloadSegments: true}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "local", router.Backend().Name())

	_, err = NewRouterFromConfig(util.Config{Backend: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewRouterFromConfig(util.Config{Backend: util.BackendRemote, RemoteURL: "ftp://brouter.de"}, zap.NewNop())
	assert.Error(t, err)
}
