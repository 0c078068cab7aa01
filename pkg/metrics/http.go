package metrics

import (
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

const (
	httpRoutePathAttributeKey      = "http.route.path"
	httpRequestIdAttributeKey      = "http.request.id"
	httpResponseStatusAttributeKey = "http.response.statusCode"
	httpResponseLevelAttributeKey  = "http.response.statusCodeLevel"

	// Set by the web handlers before the status is written
	requestIdHeaderName = "x-request-id"

	infoLevel    = "info"
	warningLevel = "warning"
	errorLevel   = "error"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewRelicHandler wraps handler in a New Relic web transaction named after
// path. The application is injected into the request context for custom
// metrics and events. A nil app returns handler as is.
func NewRelicHandler(app *newrelic.Application, path string, handler http.HandlerFunc) http.HandlerFunc {
	if app == nil {
		return handler
	}

	return func(w http.ResponseWriter, r *http.Request) {
		m := app.StartTransaction(path)
		defer m.End()

		m.SetWebRequestHTTP(r)
		m.AddAttribute(httpRoutePathAttributeKey, path)

		ctx := WithApplication(r.Context(), app)
		ctx = newrelic.NewContext(ctx, m)

		recorder := &statusRecorder{ResponseWriter: m.SetWebResponse(w), status: http.StatusOK}
		handler(recorder, r.WithContext(ctx))

		if requestId := recorder.Header().Get(requestIdHeaderName); len(requestId) > 0 {
			m.AddAttribute(httpRequestIdAttributeKey, requestId)
		}
		m.AddAttribute(httpResponseStatusAttributeKey, recorder.status)
		switch {
		case recorder.status < 400:
			m.AddAttribute(httpResponseLevelAttributeKey, infoLevel)
		case recorder.status < 500:
			m.AddAttribute(httpResponseLevelAttributeKey, warningLevel)
		default:
			m.AddAttribute(httpResponseLevelAttributeKey, errorLevel)
		}
	}
}
