// Package config loads memgraph configuration from defaults, a YAML file and
// environment variables, in that order of increasing precedence. It also
// materializes the source profile table and constructs the logger and the
// persistence medium the configuration selects.
package config
