package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/docsync/internal/handlers"
	"github.com/akolanti/docsync/internal/metrics"
	"github.com/akolanti/docsync/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	authToken  string
	authBypass bool
)

// Init sets the bearer token every wrapped route requires. With bypass set
// the token is not checked at all.
func Init(token string, bypass bool) {
	authToken = token
	authBypass = bypass
}

var SyncHandler = Wrap(handlers.SyncHandler)
var QueryHandler = Wrap(handlers.QueryHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var GetRunsHandler = Wrap(handlers.GetRunsHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}
		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if !handleBadRequest(re) {
		return re
	}
	re = authenticate(re)
	if !handleBadRequest(re) {
		return re
	}
	re = rateLimiter(re)
	handleBadRequest(re)
	return re
}
