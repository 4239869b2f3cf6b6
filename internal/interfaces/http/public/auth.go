package public

import (
	"net/http"

	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

// authVerifyHandler はトークン検証済みのユーザー情報を返す。
func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ErrorResponse{Error: "missing authenticated user"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}
