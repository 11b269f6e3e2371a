package inspection

import (
	"RoadVision/pkg/response"
	"errors"
	"net/http"
)

// Job failure taxonomy. The worker's acknowledgment policy branches on these:
// terminal failures are acked and dropped, transient ones stay pending on the
// stream for another instance to claim.
var (
	ErrMalformedMessage       = errors.New("malformed queue message")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrInferenceFailed        = errors.New("model inference failed")
	ErrFetchFailed            = errors.New("asset fetch failed")
)

var (
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
)
