// Package config loads service configuration with Viper.
//
// Sources, lowest precedence first: a YAML file (explicit or discovered
// under cmd/<service>/, config/ or the working directory), a dotenv file,
// then the process environment. Environment keys are matched against
// nested config keys, so JOBS_MAX_CONCURRENT sets jobs.max_concurrent.
//
// # Usage
//
//	var cfg app.Config
//	err := config.LoadConfig("verbatim", &cfg, config.WithConfigFile(path))
package config
