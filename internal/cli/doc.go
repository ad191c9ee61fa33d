// Package cli is the cobra command tree of the ruleforge binary. It binds
// flags, RULEFORGE_* environment variables and an optional ruleforge.yaml
// through viper, translates them into the application's configuration and
// maps failures to process exit codes.
package cli
