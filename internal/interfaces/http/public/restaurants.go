package public

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

// criteriaFromQuery reads the filter bar parameters. Price tokens are passed
// through untouched and validated by the query compiler.
func criteriaFromQuery(query url.Values) domain.Criteria {
	limit, _ := common.ParsePositiveInt(query.Get("limit"), 0)
	if limit > common.MaxListLimit {
		limit = common.MaxListLimit
	}
	return domain.Criteria{
		Category: strings.TrimSpace(query.Get("category")),
		City:     strings.TrimSpace(query.Get("city")),
		Price:    strings.TrimSpace(query.Get("price")),
		Sort:     domain.ParseSortOrder(query.Get("sort")),
		Limit:    limit,
	}
}

// restaurantListHandler はフィルタ条件に一致するレストラン一覧を返す。
// 並び順は sort パラメータ (Rating/Review) で切り替える。
func (h *Handler) restaurantListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		restaurants, err := h.restaurants.List(ctx, criteriaFromQuery(r.URL.Query()))
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, restaurantListResponse{
			Items: toRestaurantResponses(restaurants),
			Count: len(restaurants),
		})
	}
}

// restaurantDetailHandler はレストランIDを指定して詳細情報を返す。
func (h *Handler) restaurantDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		restaurant, err := h.restaurants.Detail(ctx, chi.URLParam(r, "id"))
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, toRestaurantResponse(*restaurant))
	}
}

// restaurantLiveHandler は一覧クエリを WebSocket で購読させ、変更のたびに全件スナップショットを送る。
// フィルタ不正はアップグレード前に HTTP ステータスで返す。
func (h *Handler) restaurantLiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		stream, err := h.restaurants.Watch(ctx, criteriaFromQuery(r.URL.Query()))
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
		serveLive(ctx, cancel, h.liveSession(conn), stream.Updates(), func(items []domain.Restaurant) any {
			return toRestaurantResponses(items)
		})
	}
}
