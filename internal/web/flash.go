package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "roadmap_flash"

type flashKey struct{}

// FlashMessage is a one-shot message carried across a redirect.
type FlashMessage struct {
	Type    string
	Message string
}

// withFlash reads and clears the flash cookie, exposing its message to the
// next handler through the request context.
func withFlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(flashCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: flashCookie, MaxAge: -1, Path: "/"})

		raw, _ := url.QueryUnescape(cookie.Value)
		flash := &FlashMessage{Type: "error", Message: raw}
		if after, ok := strings.CutPrefix(raw, "info:"); ok {
			flash.Type = "info"
			flash.Message = after
		} else if after, ok := strings.CutPrefix(raw, "error:"); ok {
			flash.Message = after
		}

		ctx := context.WithValue(r.Context(), flashKey{}, flash)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setFlash(w http.ResponseWriter, flashType, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(flashType + ":" + message),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func flashFrom(ctx context.Context) (*FlashMessage, bool) {
	flash, ok := ctx.Value(flashKey{}).(*FlashMessage)
	return flash, ok && flash != nil
}
