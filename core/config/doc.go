// Package config provides centralized configuration loading.
//
// Configuration is assembled from three layers, lowest precedence first:
//  1. Struct tag defaults ('default' tags on the partial config structs)
//  2. A .env file in the working directory (via godotenv)
//  3. Environment variables (TRACKER_LOG_PATH, DATABASE_DRIVER, LOG_LEVEL, ...)
//
// Nested keys map to environment variables by replacing dots with
// underscores, so 'server.port' becomes SERVER_PORT.
//
// Path settings in the tracker section are resolved against the user's
// home directory when left empty, matching the Arena client's default
// log location on macOS.
package config
