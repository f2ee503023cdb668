// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/magazix/catalog-service/messages"
)

// Fragment requests (partial-page refreshes issued from Alpine.js) mark
// themselves with this header; the target id, when present, is passed
// through untouched for the presentation layer.
const (
	HeaderAlpineRequest = "X-Alpine-Request"
	HeaderAlpineTarget  = "X-Alpine-Target"
)

var messagesTemplate = template.Must(template.New("messages").Parse(
	`<div class="messages">{{range .}}<div class="message message-{{.Level}}">{{.Text}}</div>{{end}}</div>`))

// IsFragment reports whether the request asks for a partial result.
func IsFragment(r *http.Request) bool {
	return r.Header.Get(HeaderAlpineRequest) != ""
}

// InjectMessages appends the request's queued notification messages to the
// body of successful fragment responses. Full HTML documents are left alone,
// non-2xx responses are left alone, and a failure to render the messages is
// swallowed without touching the response status.
func InjectMessages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := messages.With(r.Context())
		r = r.WithContext(ctx)

		buffered := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(buffered, r)

		body := buffered.body.Bytes()
		if IsFragment(r) && buffered.status >= 200 && buffered.status < 300 && !isFullDocument(body) {
			if queued := messages.Drain(ctx); len(queued) > 0 {
				var rendered bytes.Buffer
				if err := messagesTemplate.Execute(&rendered, queued); err == nil {
					body = append(body, rendered.Bytes()...)
				}
			}
		}

		w.WriteHeader(buffered.status)
		w.Write(body)
	})
}

func isFullDocument(body []byte) bool {
	return bytes.HasSuffix(bytes.TrimSpace(body), []byte("</html>"))
}

// bufferedWriter holds back the status and body so the middleware can append
// to the body before anything reaches the wire.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.status = status
}

func (w *bufferedWriter) Write(p []byte) (int, error) {
	return w.body.Write(p)
}
