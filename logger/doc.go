// Package logger provides structured logging backed by zerolog.
//
// It supports JSON and console output, level configuration, component
// scoped loggers and job/request ids carried on the context.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("jobs")
//	log.Info("job accepted", logger.Fields("job_id", id))
package logger
