// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Struct fields are annotated with `env:"NAME"` and `envDefault:"value"` tags
// understood by github.com/caarlos0/env. Each configuration type is parsed at
// most once per process and cached, so packages can load their own config
// independently without re-reading the environment.
package config
