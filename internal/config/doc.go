// Package config loads the YAML configuration for ttlstore and watches the
// file for changes. Durations are integer milliseconds, matching the units of
// the store's construction options.
package config
