package processor

import (
	"net/http"

	"github.com/paycore/processor-gateway/pkg/logging"
)

// Deps are the collaborators handed to every adapter constructor.
type Deps struct {
	Logger     *logging.Logger
	Observer   Observer
	HTTPClient *http.Client
}

// BaseOptions converts deps into Base options.
func (d Deps) BaseOptions() []BaseOption {
	return []BaseOption{WithLogger(d.Logger), WithObserver(d.Observer)}
}
