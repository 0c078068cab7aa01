package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/token-minter/pkg/metrics"
	"github.com/code-payments/token-minter/pkg/minter"
	"github.com/code-payments/token-minter/pkg/rate"
	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

const (
	v1PathPrefix               = "/v1"
	v1CreateTokenPath          = v1PathPrefix + "/tokens/transaction"
	v1SubmitTransactionPath    = v1PathPrefix + "/transactions/submit"
	v1GetTokenPath             = v1PathPrefix + "/tokens"
	v1MetadataInstructionPath  = v1PathPrefix + "/metadata/instruction"
	v1MetadataAddressPath      = v1PathPrefix + "/metadata/address"
	healthPath                 = "/healthz"
	requestIdHeaderName        = "x-request-id"
	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
)

type Server struct {
	log     *logrus.Entry
	minter  *minter.Minter
	limiter rate.Limiter
	nr      *newrelic.Application
}

// NewTokenServer returns the HTTP front end of m. Token creation and
// submission are rate limited per wallet by limiter. The New Relic
// application is optional.
func NewTokenServer(m *minter.Minter, limiter rate.Limiter, nr *newrelic.Application) *Server {
	return &Server{
		log:     logrus.StandardLogger().WithField("type", "minter/web"),
		minter:  m,
		limiter: limiter,
		nr:      nr,
	}
}

func (s *Server) createTokenHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.newRequestLogger(w, path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			req, err := newCreateTokenRequestFromHttpContext(w, r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			owner, err := solana.PublicKeyFromBase58(req.Owner)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(fmt.Errorf("%w: owner: %v", minter.ErrInvalidRequest, err))
			}
			log = log.WithField("owner", base58.Encode(owner))

			if err := s.checkRateLimit(base58.Encode(owner)); err != nil {
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			res, err := s.minter.CreateToken(ctx, req)
			if err != nil {
				log.WithError(err).Info("failure creating token transaction")
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			encoded, err := res.Transaction.ToBase64()
			if err != nil {
				log.WithError(err).Warn("failure encoding token transaction")
				return http.StatusInternalServerError, NewGenericApiFailureResponseBody(errInternal)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["mint"] = base58.Encode(res.Mint)
			respBody["metadata"] = base58.Encode(res.Metadata)
			respBody["metadata_bump"] = res.MetadataBump
			respBody["associated_account"] = base58.Encode(res.AssociatedAccount)
			respBody["update_authority"] = base58.Encode(res.UpdateAuthority)
			respBody["is_mutable"] = res.IsMutable
			respBody["transaction"] = encoded
			respBody["instructions"] = instructionsToJson(res.Instructions)
			return http.StatusOK, respBody
		}()

		s.writeResponse(w, log, statusCode, body)
	}
}

func (s *Server) submitTransactionHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.newRequestLogger(w, path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			txn, err := newTransactionFromHttpContext(w, r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			signers := txn.Signers()
			if len(signers) == 0 {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("transaction has no signers"))
			}
			feePayer := base58.Encode(signers[0])
			log = log.WithField("fee_payer", feePayer)

			if err := s.checkRateLimit(feePayer); err != nil {
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			res, err := s.minter.Submit(ctx, txn)
			if err != nil {
				log.WithError(err).Info("failure submitting token transaction")
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["signature"] = base58.Encode(res.Signature[:])
			respBody["mint"] = base58.Encode(res.Mint)
			respBody["metadata"] = base58.Encode(res.Metadata)
			return http.StatusOK, respBody
		}()

		s.writeResponse(w, log, statusCode, body)
	}
}

func (s *Server) getTokenHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.newRequestLogger(w, path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			ctx := r.Context()

			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			mint, err := getMintFromQuery(r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}
			log = log.WithField("mint", base58.Encode(mint))

			info, err := s.minter.GetToken(ctx, mint)
			if err != nil {
				if !errors.Is(err, minter.ErrTokenNotFound) {
					log.WithError(err).Warn("failure getting token")
				}
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["token"] = tokenInfoToJson(info)
			return http.StatusOK, respBody
		}()

		s.writeResponse(w, log, statusCode, body)
	}
}

func (s *Server) metadataInstructionHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.newRequestLogger(w, path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			req, err := newMetadataInstructionRequestFromHttpContext(w, r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			instruction, err := tokenmetadata.NewCreateMetadataAccountV3Instruction(req.accounts, req.args)
			if err != nil {
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["metadata"] = base58.Encode(instruction.Accounts[0].PublicKey)
			respBody["instruction"] = instruction.ToJSON()
			return http.StatusOK, respBody
		}()

		s.writeResponse(w, log, statusCode, body)
	}
}

func (s *Server) metadataAddressHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.newRequestLogger(w, path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			mint, err := getMintFromQuery(r)
			if err != nil {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(err)
			}

			address, bump, err := tokenmetadata.GetMetadataAddress(mint)
			if err != nil {
				statusCode, err := HandleMinterErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["metadata"] = base58.Encode(address)
			respBody["bump"] = bump
			return http.StatusOK, respBody
		}()

		s.writeResponse(w, log, statusCode, body)
	}
}

func (s *Server) healthHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeResponse(w, s.log.WithField("path", path), http.StatusOK, NewGenericApiSuccessResponseBody())
	}
}

func (s *Server) checkRateLimit(key string) error {
	allowed, err := s.limiter.Allow(key)
	if err != nil {
		s.log.WithError(err).Warn("failure checking rate limit")
		return nil
	}
	if !allowed {
		return errRateLimited
	}
	return nil
}

// newRequestLogger tags the response with a fresh request id and returns a
// logger carrying it.
func (s *Server) newRequestLogger(w http.ResponseWriter, path string) *logrus.Entry {
	requestId := uuid.New().String()
	w.Header().Set(requestIdHeaderName, requestId)

	return s.log.WithFields(logrus.Fields{
		"path":       path,
		"request_id": requestId,
	})
}

func (s *Server) writeResponse(w http.ResponseWriter, log *logrus.Entry, statusCode int, body GenericApiResponseBody) {
	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(body.ToString())); err != nil {
		log.WithError(err).Warn("failed to write body")
	}
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	handlers := map[string]http.HandlerFunc{
		v1CreateTokenPath:         s.createTokenHandler(v1CreateTokenPath),
		v1SubmitTransactionPath:   s.submitTransactionHandler(v1SubmitTransactionPath),
		v1GetTokenPath:            s.getTokenHandler(v1GetTokenPath),
		v1MetadataInstructionPath: s.metadataInstructionHandler(v1MetadataInstructionPath),
		v1MetadataAddressPath:     s.metadataAddressHandler(v1MetadataAddressPath),
		healthPath:                s.healthHandler(healthPath),
	}

	for path, handler := range handlers {
		handlers[path] = metrics.NewRelicHandler(s.nr, path, handler)
	}
	return handlers
}
