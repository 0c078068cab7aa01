package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/token-minter/pkg/app"
	"github.com/code-payments/token-minter/pkg/testutil"
)

func TestDecodeAppConfig(t *testing.T) {
	conf, err := decodeAppConfig(app.Config{
		"solana_rpc_endpoint":   "http://localhost:8899",
		"request_timeout":       "5s",
		"rate_limit_per_second": "1.5",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", conf.SolanaRpcEndpoint)
	assert.Equal(t, 5*time.Second, conf.RequestTimeout)
	assert.Equal(t, 1.5, conf.RateLimitPerSecond)
	assert.Equal(t, defaultAppConfig.RateLimitBurst, conf.RateLimitBurst)

	_, err = decodeAppConfig(app.Config{})
	assert.Error(t, err)

	_, err = decodeAppConfig(app.Config{"solana_rpc_endpoint": "http://localhost:8899", "request_timeout": "soon"})
	assert.Error(t, err)
}

func TestTokenMinterApp(t *testing.T) {
	a := &tokenMinterApp{}

	err := a.Init(app.Config{
		"solana_rpc_endpoint":          "http://localhost:8899",
		"update_authority_private_key": "not a key",
	}, nil)
	assert.Error(t, err)

	err = a.Init(app.Config{
		"solana_rpc_endpoint":          "http://localhost:8899",
		"update_authority_private_key": base58.Encode(testutil.GenerateSolanaKeypair(t)),
	}, nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	a.RegisterWithHTTP(mux)

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	select {
	case <-a.ShutdownChan():
		t.Fatal("unexpected shutdown")
	default:
	}

	a.Stop()
	a.Stop()
	<-a.ShutdownChan()
}
