package utils

import "errors"

// ErrorUploadLocked means another process is already running the pipeline
// for the same upload id.
var ErrorUploadLocked = errors.New("upload is already being processed")
