package middlewares

import (
	"golang.org/x/text/language"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/i18n"
)

type localeKey struct{}

// Locale returns middleware that matches the request's preferred locales
// against the supported ones, stores the result in the context and sets it
// as the response locale (and Content-Language). The first supported tag is
// the fallback.
//
// Example:
//
//	middlewares.Locale(language.English, language.German, language.French)
func Locale(supported ...language.Tag) internal.Middleware {
	if len(supported) == 0 {
		supported = []language.Tag{language.English}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			tag := i18n.Match(c.Header("Accept-Language"), supported...)
			c.Set(localeKey{}, tag)
			c.Response().SetLocale(tag)
			return next(c)
		}
	}
}

// GetLocale returns the locale chosen by the Locale middleware, or the
// request's most preferred locale when the middleware is not used.
func GetLocale(c internal.Context) language.Tag {
	if v, ok := c.Get(localeKey{}).(language.Tag); ok {
		return v
	}
	return c.Locale()
}
