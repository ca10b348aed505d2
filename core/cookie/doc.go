// Package cookie renders Set-Cookie header values and parses Cookie request headers
// for envelope-based function responses.
//
//	m := cookie.New(cookie.WithSecure(true))
//
//	header, err := m.Set("session_token", token,
//		cookie.WithExpires(expiresAt),
//		cookie.WithHTTPOnly(true),
//	)
//	if err != nil {
//		return err
//	}
//	ctx.AppendHeader("Set-Cookie", header)
//
//	// Overwrite with an already-expired cookie.
//	ctx.AppendHeader("Set-Cookie", m.Delete("session_token"))
//
//	values := cookie.Parse(event.Cookies...)
//
// Defaults are Path "/", HttpOnly and SameSite=Lax. Headers larger than
// MaxCookieSize (or Config.MaxSize) are rejected with ErrCookieTooLarge.
package cookie
