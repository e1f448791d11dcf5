// Package config loads runtime configuration for the nook CLI.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A config file: --config PATH, or the first of config.{yaml,yml,toml,json,jsonc}
//     found in the working directory or in the data directory. JSON files may
//     carry comments and trailing commas.
//  3. .env / .env.local files (working directory and next to the config file)
//     and NOOK_* environment variables, e.g. NOOK_DATA_DIR, NOOK_LOG_LEVEL.
//  4. Command-line flags bound to the same viper instance.
//
// Keys
//
//	data_dir        root of the library (default ~/.booknook)
//	database_path   SQLite file (default <data_dir>/library.db)
//	blob_dir        document files (default <data_dir>/blobs)
//	backup_format   json | cbor
//	log.level, log.json, log.file, log.rotation.{max_size,max_backups,max_age,compress}
package config
