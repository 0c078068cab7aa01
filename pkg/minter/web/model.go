package web

import (
	"crypto/ed25519"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/token-minter/pkg/minter"
	"github.com/code-payments/token-minter/pkg/solana"
	"github.com/code-payments/token-minter/pkg/solana/tokenmetadata"
)

const maxRequestBodySize = 64 * 1024

func decodeJsonBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		return errors.New("request body is too large or unreadable")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("request body is not valid json")
	}
	return nil
}

func newCreateTokenRequestFromHttpContext(w http.ResponseWriter, r *http.Request) (*minter.CreateTokenRequest, error) {
	var req minter.CreateTokenRequest
	if err := decodeJsonBody(w, r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func newTransactionFromHttpContext(w http.ResponseWriter, r *http.Request) (solana.Transaction, error) {
	httpRequestBody := struct {
		Transaction string `json:"transaction"`
	}{}

	if err := decodeJsonBody(w, r, &httpRequestBody); err != nil {
		return solana.Transaction{}, err
	}

	if len(httpRequestBody.Transaction) == 0 {
		return solana.Transaction{}, errors.New("transaction is missing")
	}

	txn, err := solana.TransactionFromBase64(httpRequestBody.Transaction)
	if err != nil {
		return solana.Transaction{}, errors.New("transaction is not a valid base64 encoded transaction")
	}
	return txn, nil
}

type metadataInstructionRequest struct {
	accounts *tokenmetadata.CreateMetadataAccountV3InstructionAccounts
	args     *tokenmetadata.CreateMetadataAccountV3InstructionArgs
}

func newMetadataInstructionRequestFromHttpContext(w http.ResponseWriter, r *http.Request) (*metadataInstructionRequest, error) {
	httpRequestBody := struct {
		Mint            string               `json:"mint"`
		MintAuthority   string               `json:"mint_authority"`
		Payer           string               `json:"payer"`
		UpdateAuthority string               `json:"update_authority"`
		Data            tokenmetadata.DataV2 `json:"data"`
		IsMutable       bool                 `json:"is_mutable"`
	}{}

	if err := decodeJsonBody(w, r, &httpRequestBody); err != nil {
		return nil, err
	}

	var accounts tokenmetadata.CreateMetadataAccountV3InstructionAccounts
	for _, field := range []struct {
		name  string
		value string
		dst   *ed25519.PublicKey
	}{
		{"mint", httpRequestBody.Mint, &accounts.Mint},
		{"mint_authority", httpRequestBody.MintAuthority, &accounts.MintAuthority},
		{"payer", httpRequestBody.Payer, &accounts.Payer},
		{"update_authority", httpRequestBody.UpdateAuthority, &accounts.UpdateAuthority},
	} {
		key, err := solana.PublicKeyFromBase58(field.value)
		if err != nil {
			return nil, errors.Errorf("%s is not a public key", field.name)
		}
		*field.dst = key
	}

	return &metadataInstructionRequest{
		accounts: &accounts,
		args: &tokenmetadata.CreateMetadataAccountV3InstructionArgs{
			Data:      httpRequestBody.Data,
			IsMutable: httpRequestBody.IsMutable,
		},
	}, nil
}

func getMintFromQuery(r *http.Request) (ed25519.PublicKey, error) {
	mintQueryParam := r.URL.Query()["mint"]
	if len(mintQueryParam) < 1 {
		return nil, errors.New("mint query parameter missing")
	}

	mint, err := solana.PublicKeyFromBase58(mintQueryParam[0])
	if err != nil {
		return nil, errors.New("mint is not a public key")
	}
	return mint, nil
}

func optionalKeyToString(key ed25519.PublicKey) any {
	if len(key) == 0 {
		return nil
	}
	return base58.Encode(key)
}

func instructionsToJson(instructions []solana.Instruction) []solana.InstructionJSON {
	res := make([]solana.InstructionJSON, len(instructions))
	for i, instruction := range instructions {
		res[i] = instruction.ToJSON()
	}
	return res
}

func tokenInfoToJson(info *minter.TokenInfo) map[string]any {
	res := map[string]any{
		"mint":             base58.Encode(info.Mint),
		"supply":           info.State.Supply,
		"decimals":         info.State.Decimals,
		"mint_authority":   optionalKeyToString(info.State.MintAuthority),
		"freeze_authority": optionalKeyToString(info.State.FreezeAuthority),
		"metadata_address": base58.Encode(info.MetadataAddress),
	}

	if info.Metadata != nil {
		res["metadata"] = map[string]any{
			"update_authority":      base58.Encode(info.Metadata.UpdateAuthority),
			"data":                  info.Metadata.Data,
			"primary_sale_happened": info.Metadata.PrimarySaleHappened,
			"is_mutable":            info.Metadata.IsMutable,
		}
	}

	return res
}
