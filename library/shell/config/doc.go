// Package config loads the runtime configuration from the environment (and an optional .env file)
// and builds the database handles and the logger the binaries need.
package config
