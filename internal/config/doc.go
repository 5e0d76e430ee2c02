// Package config loads CyberGuard settings from a YAML file and
// CYBERGUARD_-prefixed environment variables. The resulting Config is built
// once at startup and handed to constructors; credentials never live in
// process-wide variables.
package config
