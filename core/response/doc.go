// Package response builds the envelopes returned by function invocations.
//
// An Envelope carries a status code, multi-valued headers, a body and a binary flag.
// Builders cover the common shapes:
//
//	env, err := response.JSON(user)                  // application/json
//	env := response.HTML(page)                        // base64 body, IsBinary
//	env := response.XML(feed)
//	env := response.Redirect("/login")                // 302 by default
//	env := response.Redirect("/moved", http.StatusMovedPermanently)
//	env := response.NotFound()
//	env := response.CORSPreflight(cors, origin)
//
// Operation responses wrap a payload with out-of-band signals:
//
//	env, err := response.Operation("3", payload,
//		response.WithSessionExpired(),
//		response.WithErrorMessage("please sign in again"),
//	)
//
// produces
//
//	{"apiVersion":"3","payload":...,"sessionExpired":true,"errorMessage":"please sign in again"}
//
// InternalServerError is the fixed failure envelope used when no error handler is
// registered; it never includes error detail.
package response
