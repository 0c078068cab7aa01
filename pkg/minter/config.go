package minter

import (
	"github.com/code-payments/token-minter/pkg/config"
	"github.com/code-payments/token-minter/pkg/config/env"
	"github.com/code-payments/token-minter/pkg/config/memory"
	"github.com/code-payments/token-minter/pkg/config/wrapper"
)

const (
	envConfigPrefix = "MINTER_SERVICE_"

	DisableTokenCreationConfigEnvName = envConfigPrefix + "DISABLE_TOKEN_CREATION"
	defaultDisableTokenCreation       = false

	// Priority fee in micro-lamports per compute unit. Zero omits the
	// instruction.
	ComputeUnitPriceConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_PRICE"
	defaultComputeUnitPrice       = 0

	// Zero omits the instruction, leaving the runtime default.
	ComputeUnitLimitConfigEnvName = envConfigPrefix + "COMPUTE_UNIT_LIMIT"
	defaultComputeUnitLimit       = 0

	SubmitCommitmentConfigEnvName = envConfigPrefix + "SUBMIT_COMMITMENT"
	defaultSubmitCommitment       = "confirmed"
)

type conf struct {
	disableTokenCreation config.Bool
	computeUnitPrice     config.Uint64
	computeUnitLimit     config.Uint64
	submitCommitment     config.String
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			disableTokenCreation: env.NewBoolConfig(DisableTokenCreationConfigEnvName, defaultDisableTokenCreation),
			computeUnitPrice:     env.NewUint64Config(ComputeUnitPriceConfigEnvName, defaultComputeUnitPrice),
			computeUnitLimit:     env.NewUint64Config(ComputeUnitLimitConfigEnvName, defaultComputeUnitLimit),
			submitCommitment:     env.NewStringConfig(SubmitCommitmentConfigEnvName, defaultSubmitCommitment),
		}
	}
}

type testOverrides struct {
	disableTokenCreation bool
	computeUnitPrice     uint64
	computeUnitLimit     uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	return func() *conf {
		return &conf{
			disableTokenCreation: wrapper.NewBoolConfig(memory.NewConfig(overrides.disableTokenCreation), defaultDisableTokenCreation),
			computeUnitPrice:     wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitPrice), defaultComputeUnitPrice),
			computeUnitLimit:     wrapper.NewUint64Config(memory.NewConfig(overrides.computeUnitLimit), defaultComputeUnitLimit),
			submitCommitment:     wrapper.NewStringConfig(memory.NewConfig(defaultSubmitCommitment), defaultSubmitCommitment),
		}
	}
}
