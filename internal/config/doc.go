// Package config loads claimpulse configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CLAIMS_<SECTION>_<FIELD>:
//
//	CLAIMS_SERVER_PORT=8080
//	CLAIMS_LOGGING_LEVEL=debug
//	CLAIMS_SOURCES_EXPOSURE=https://exports.example.com/exposure.csv
//	CLAIMS_SOURCES_WEEKLY=/data/weekly.xlsx
//	CLAIMS_SCORING_HIGH_RISK_JURISDICTIONS=CA,FL,NV
//
// CLAIMS_CONFIG_FILE names the YAML file explicitly; otherwise config.yaml and
// configs/config.yaml are searched.
//
// # Validation
//
// Load validates the merged configuration with go-playground/validator struct
// tags. Source URIs must be http(s) URLs, file URLs or filesystem paths.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default(), which mirrors the struct tag defaults.
package config
