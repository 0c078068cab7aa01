package main

import (
	"crypto/ed25519"
	"net/http"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/token-minter/pkg/app"
	"github.com/code-payments/token-minter/pkg/minter"
	"github.com/code-payments/token-minter/pkg/minter/web"
	"github.com/code-payments/token-minter/pkg/rate"
	"github.com/code-payments/token-minter/pkg/solana"
)

type appConfig struct {
	SolanaRpcEndpoint string `mapstructure:"solana_rpc_endpoint"`
	// Optional base58 encoded 64 byte key. Required for immutable tokens to
	// carry the service as update authority.
	UpdateAuthorityPrivateKey string        `mapstructure:"update_authority_private_key"`
	RequestTimeout            time.Duration `mapstructure:"request_timeout"`

	// Per wallet limits on token creation and submission. A zero rate
	// disables limiting.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
}

var defaultAppConfig = appConfig{
	RequestTimeout:     30 * time.Second,
	RateLimitPerSecond: 0.2,
	RateLimitBurst:     3,
}

type tokenMinterApp struct {
	log    *logrus.Entry
	server *web.Server

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func decodeAppConfig(config app.Config) (*appConfig, error) {
	decoded := defaultAppConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &decoded,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(config)); err != nil {
		return nil, errors.Wrap(err, "invalid app config")
	}

	if len(decoded.SolanaRpcEndpoint) == 0 {
		return nil, errors.New("solana_rpc_endpoint is required")
	}
	return &decoded, nil
}

func (a *tokenMinterApp) Init(config app.Config, metricsProvider *newrelic.Application) error {
	a.log = logrus.StandardLogger().WithField("type", "token-minter/app")
	a.shutdownCh = make(chan struct{})

	conf, err := decodeAppConfig(config)
	if err != nil {
		return err
	}

	var updateAuthority ed25519.PrivateKey
	if len(conf.UpdateAuthorityPrivateKey) > 0 {
		updateAuthority, err = solana.PrivateKeyFromBase58(conf.UpdateAuthorityPrivateKey)
		if err != nil {
			return errors.Wrap(err, "invalid update authority private key")
		}
	} else {
		a.log.Info("no update authority key configured, immutable tokens keep the owner as update authority")
	}

	var limiter rate.Limiter = &rate.NoLimiter{}
	if conf.RateLimitPerSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(conf.RateLimitPerSecond), conf.RateLimitBurst)
	}

	sc := solana.NewWithTimeout(conf.SolanaRpcEndpoint, conf.RequestTimeout)
	a.server = web.NewTokenServer(minter.New(sc, updateAuthority, minter.WithEnvConfigs()), limiter, metricsProvider)

	return nil
}

func (a *tokenMinterApp) RegisterWithHTTP(mux *http.ServeMux) {
	for path, handler := range a.server.GetHandlers() {
		mux.HandleFunc(path, handler)
	}
}

func (a *tokenMinterApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

func (a *tokenMinterApp) Stop() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}
