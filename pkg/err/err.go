package errprocess

import (
	"errors"

	"github.com/dsneed123/another-social-media-app/pkg/logger"
)

// Set logs the message and returns it as an error.
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
