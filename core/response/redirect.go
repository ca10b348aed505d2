package response

import "net/http"

// Redirect creates a redirect response. The status defaults to 302 Found.
func Redirect(url string, status ...int) *Envelope {
	code := http.StatusFound
	if len(status) > 0 && status[0] != 0 {
		code = status[0]
	}
	env := New(code)
	env.Headers.Set("Location", url)
	return env
}
