package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/code-payments/token-minter/pkg/minter"
	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

const (
	successJsonKey = "success"
	errorJsonKey   = "error"
)

var (
	errInternal    = errors.New("internal server error")
	errRateLimited = errors.New("rate limited")
)

type GenericApiResponseBody map[string]any

func NewGenericApiSuccessResponseBody() GenericApiResponseBody {
	return map[string]any{
		successJsonKey: true,
	}
}

func NewGenericApiFailureResponseBody(err error) GenericApiResponseBody {
	return map[string]any{
		successJsonKey: false,
		errorJsonKey:   err.Error(),
	}
}

func (b *GenericApiResponseBody) ToString() string {
	marshalled, _ := json.Marshal(b)
	return string(marshalled)
}

// HandleMinterErrorInWebContext maps an error from the minter, or the
// instruction builders it uses, to a status code and the error that is safe to
// return to the caller.
func HandleMinterErrorInWebContext(err error) (int, error) {
	if err == nil {
		return http.StatusOK, nil
	}

	var txnErr *solana.TransactionError
	switch {
	case errors.Is(err, minter.ErrInvalidRequest),
		errors.Is(err, minter.ErrInvalidTransaction),
		errors.Is(err, tokenmetadata.ErrInvalidPublicKey),
		errors.Is(err, tokenmetadata.ErrUnsupportedValue),
		errors.Is(err, tokenmetadata.ErrAddressDerivationFailed):
		return http.StatusBadRequest, err
	case errors.As(err, &txnErr):
		return http.StatusBadRequest, err
	case errors.Is(err, minter.ErrTokenNotFound):
		return http.StatusNotFound, err
	case errors.Is(err, minter.ErrTokenCreationDisabled):
		return http.StatusServiceUnavailable, err
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, err
	default:
		return http.StatusInternalServerError, errInternal
	}
}
