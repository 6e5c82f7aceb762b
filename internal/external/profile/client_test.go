package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/httputil"
	"github.com/wonny/factorpanel/pkg/logger"
)

func TestParseSector(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "definition list",
			html: `<dl><dt>Industry</dt><dd>Software</dd><dt>Sector</dt><dd> Technology </dd></dl>`,
			want: "Technology",
		},
		{
			name: "table",
			html: `<table><tr><th>Sector:</th><td>Consumer   Cyclical</td></tr></table>`,
			want: "Consumer Cyclical",
		},
		{
			name: "spans",
			html: `<div><span>Sector(s)</span><span>Energy</span></div>`,
			want: "Energy",
		},
		{
			name: "placeholder value",
			html: `<dl><dt>Sector</dt><dd>--</dd></dl>`,
			want: "",
		},
		{
			name: "missing",
			html: `<dl><dt>Industry</dt><dd>Software</dd></dl>`,
			want: "",
		},
		{
			name: "not applicable",
			html: `<dl><dt>Sector</dt><dd>N/A</dd></dl>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSector([]byte(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_FetchOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/AAA/profile":
			_, _ = w.Write([]byte(`<html><body><dl><dt>Sector</dt><dd>Technology</dd></dl></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	log := logger.NewNop()
	c := NewClient(config.ProfileConfig{BaseURL: srv.URL + "/quote/"}, httputil.New(5*time.Second, log).DisableRetry(), log)

	sector, err := c.FetchOne(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Equal(t, "Technology", sector)

	_, err = c.FetchOne(context.Background(), "ZZZ")
	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}
