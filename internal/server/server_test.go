package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"qcomposer/internal/sim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const bell = `OPENQASM 2.0;
qreg q[2];
creg c[2];
h q[0];
cx q[0], q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, code string, shots int) string {
	t.Helper()
	b, err := json.Marshal(sim.Request{Code: code, Shots: shots})
	require.NoError(t, err)
	return string(b)
}

func TestRun(t *testing.T) {
	h := New(&sim.Local{Seed: 1}, Options{MaxConcurrent: 1}, nil).Handler()
	rec := post(t, h, body(t, bell, 100))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res sim.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 100, res.Shots)
	n := 0
	for k, v := range res.Counts {
		assert.Contains(t, []string{"00", "11"}, k)
		n += v
	}
	assert.Equal(t, 100, n)
}

func TestRunDefaultShots(t *testing.T) {
	h := New(&sim.Local{Seed: 1}, Options{}, nil).Handler()
	rec := post(t, h, `{"code": `+jsonString(bell)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res sim.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, sim.DefaultShots, res.Shots)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestRunErrors(t *testing.T) {
	h := New(&sim.Local{}, Options{MaxShots: 50}, nil).Handler()
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"missing code", `{"shots": 3}`, http.StatusBadRequest},
		{"too many shots", body(t, bell, 51), http.StatusBadRequest},
		{"negative shots", body(t, bell, -1), http.StatusBadRequest},
		{"bad program", body(t, "qreg q[1]; nope q[0];", 1), http.StatusUnprocessableEntity},
		{"no measurement", body(t, "qreg q[1]; h q[0];", 1), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var e sim.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(&sim.Local{}, Options{}, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	h := New(&sim.Local{Seed: 1}, Options{CORSOrigins: []string{"http://localhost:3000"}}, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(body(t, bell, 10)))
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(&sim.Local{Seed: 2}, Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := sim.NewRemote("http://" + ln.Addr().String() + "/api/")
	res, err := client.Run(context.Background(), bell, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Shots)
	client.Client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServeBadAddr(t *testing.T) {
	err := New(&sim.Local{}, Options{}, nil).ListenAndServe(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
