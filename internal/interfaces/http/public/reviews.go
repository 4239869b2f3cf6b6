package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

// reviewListHandler はレストランに紐づくレビューを新しい順に返す。
func (h *Handler) reviewListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		reviews, err := h.reviewQueries.List(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, reviewListResponse{
			Items: toReviewResponses(reviews),
			Count: len(reviews),
		})
	}
}

// reviewLiveHandler はレビュー一覧を WebSocket で購読させる。
func (h *Handler) reviewLiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		stream, err := h.reviewQueries.Watch(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}
		defer stream.Close()

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		serveLive(ctx, cancel, h.liveSession(conn), stream.Updates(), func(items []domain.Review) any {
			return toReviewResponses(items)
		})
	}
}

// reviewSubmitHandler は認証済みユーザーのレビューを受け付け、評価集計と同一トランザクションで保存する。
// userId と表示名はトークンから取り、リクエストボディでは受け付けない。
func (h *Handler) reviewSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, common.ErrorResponse{Error: "missing authenticated user"})
			return
		}

		defer r.Body.Close()

		var req submitReviewRequest
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, common.ErrorResponse{
				Error: fmt.Sprintf("invalid request body: %v", err),
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		restaurantID := chi.URLParam(r, "id")
		review, err := h.reviewCommands.Submit(ctx, restaurantID, domain.NewReview{
			Rating:   req.Rating,
			Text:     req.Text,
			UserID:   user.ID,
			UserName: user.DisplayName(),
		})
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		h.logger.WithFields(logrus.Fields{
			"restaurant_id": restaurantID,
			"review_id":     review.ID,
			"user_id":       user.ID,
		}).Info("review submitted")
		common.WriteJSON(h.logger, w, http.StatusCreated, submitReviewResponse{Status: "ok", Review: *review})
	}
}

// rateLimit throttles review submissions per authenticated user. Limiter
// failures let the request through.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter, err := h.limiter.Allow(r.Context(), user.ID)
		if err != nil {
			h.logger.WithError(err).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			common.WriteJSON(h.logger, w, http.StatusTooManyRequests, common.ErrorResponse{Error: "too many reviews, try again later"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
