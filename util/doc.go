// Package util holds small helpers shared by config loading and logging.
package util
