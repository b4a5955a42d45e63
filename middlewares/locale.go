package middlewares

import (
	"errors"
	"net/http"

	"github.com/spf13/cast"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/anvil/internal"
)

type localeKey struct{}

// maxAcceptLanguageLength caps the Accept-Language header that is parsed.
const maxAcceptLanguageLength = 4096

// LocaleConfig configures the locale middleware.
type LocaleConfig struct {
	Default string
	Cookie  string
	Query   string
	Locales []string
}

// LocaleConfigFrom reads locales, default, cookie and query options.
// The first locale is the default unless default names one.
func LocaleConfigFrom(opts map[string]any) (LocaleConfig, error) {
	cfg := LocaleConfig{Cookie: "lang", Query: "lang", Locales: []string{"en"}}
	if v, ok := opts["locales"]; ok {
		locales, err := cast.ToStringSliceE(v)
		if err != nil {
			return cfg, invalidOption("locale", "locales", err)
		}
		if len(locales) == 0 {
			return cfg, invalidOption("locale", "locales", errors.New("empty list"))
		}
		cfg.Locales = locales
	}
	cfg.Default = cfg.Locales[0]
	if v := cast.ToString(opts["default"]); v != "" {
		cfg.Default = v
	}
	if v, ok := opts["cookie"]; ok {
		cfg.Cookie = cast.ToString(v)
	}
	if v, ok := opts["query"]; ok {
		cfg.Query = cast.ToString(v)
	}
	return cfg, nil
}

// Locale picks the response language. An explicit query parameter wins,
// then the cookie, then Accept-Language. The pick is one of the configured
// locales and is sent back as Content-Language.
func Locale(opts map[string]any, _ *internal.App) (internal.Middleware, error) {
	cfg, err := LocaleConfigFrom(opts)
	if err != nil {
		return nil, err
	}

	// The default goes first so the matcher falls back to it.
	names := []string{cfg.Default}
	for _, l := range cfg.Locales {
		if l != cfg.Default {
			names = append(names, l)
		}
	}
	tags := make([]language.Tag, len(names))
	for i, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, invalidOption("locale", "locales", err)
		}
		tags[i] = tag
	}
	matcher := language.NewMatcher(tags)

	pick := func(r *http.Request) string {
		var wanted []string
		if cfg.Query != "" {
			if v := r.URL.Query().Get(cfg.Query); v != "" {
				wanted = append(wanted, v)
			}
		}
		if cfg.Cookie != "" {
			if ck, err := r.Cookie(cfg.Cookie); err == nil && ck.Value != "" {
				wanted = append(wanted, ck.Value)
			}
		}
		if accept := r.Header.Get("Accept-Language"); accept != "" && len(accept) <= maxAcceptLanguageLength {
			wanted = append(wanted, accept)
		}
		_, index := language.MatchStrings(matcher, wanted...)
		return names[index]
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			locale := pick(c.Request())
			c.Set(localeKey{}, locale)
			c.SetHeader("Content-Language", locale)
			return next(c)
		}
	}, nil
}

// GetLocale returns the locale chosen by the locale middleware, or "".
func GetLocale(c internal.Context) string {
	if v, ok := c.Get(localeKey{}).(string); ok {
		return v
	}
	return ""
}
