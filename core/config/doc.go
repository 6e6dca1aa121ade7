// Package config assembles the application configuration from environment
// variables and an optional .env file.
//
// Each subsystem declares its own partial Config struct next to its code
// (core/server, core/database, core/storage, core/logger,
// feature/reconciliation); this package binds them together, registers
// defaults from struct tags, and applies environment overrides, e.g.
// SERVER_PORT maps to server.port.
package config
