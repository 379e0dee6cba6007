package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"podnplay/internal/middleware"
)

func (h *Handlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "signin.html", "Sign in", nil, nil)
}

// SignIn validates Telegram init data posted by the mini app and stores it
// in the session cookie.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("init_data")
	user, err := h.auth.Authenticate(r.Context(), raw)
	if err != nil {
		h.logger.Info("sign in rejected", zap.Error(err))
		http.Error(w, "Invalid Telegram init data", http.StatusUnauthorized)
		return
	}

	middleware.SetSession(w, raw, h.auth.TTL())
	h.logger.Info("user signed in", zap.Int64("user_id", user.ID))
	if wantsJSON(r) {
		h.writeJSON(w, http.StatusOK, user)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignOut ends the session and drops the user's draft.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(draftCookie); err == nil {
		if user, ok := middleware.UserFromContext(r.Context()); ok {
			if _, owned := h.drafts.Get(c.Value, user.ID); owned {
				h.drafts.Discard(c.Value)
			}
		}
	}
	middleware.ClearSession(w)
	clearDraftCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
