// Package config loads runtime configuration for the treasure hunt client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     address:port of the treasure server
//	-o string     download directory
//	-t duration   dial timeout
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:5556",
//	  "download_dir": "loot",
//	  "dial_timeout": "5s"
//	}
package config
