// Package constants holds shared domain-level constant values.
package constants

// Pub/Sub provider selection values for config.PubSub.Provider.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Runtime environment names for config.Env.Env.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)
