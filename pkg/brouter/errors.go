package brouter

import "github.com/lintang-b-s/brouter-client/pkg/util"

// Error kinds returned by this package, for errors.Is.
var (
	ErrInvalidProfile             = util.ErrInvalidProfile
	ErrInvalidRequest             = util.ErrInvalidRequest
	ErrNetwork                    = util.ErrNetwork
	ErrRemoteTimeout              = util.ErrRemoteTimeout
	ErrRemote                     = util.ErrRemote
	ErrLocalEngineUnavailable     = util.ErrLocalEngineUnavailable
	ErrLocalEngineExecutionFailed = util.ErrLocalEngineExecutionFailed
	ErrLocalEngineTimeout         = util.ErrLocalEngineTimeout
	ErrMalformedResponse          = util.ErrMalformedResponse
	ErrEmptyRoute                 = util.ErrEmptyRoute
	ErrMissingDataFile            = util.ErrMissingDataFile
	ErrNoRouteFound               = util.ErrNoRouteFound
	ErrEngineTimeout              = util.ErrEngineTimeout
	ErrProfileUpload              = util.ErrProfileUpload
)
