package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

// priceToken accepts either a JSON number (2) or a tier token ("$$").
type priceToken int

func (p *priceToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var token string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &token); err != nil {
			return err
		}
	} else {
		token = string(data)
	}
	tier, err := domain.DecodePriceTier(token)
	if err != nil {
		return err
	}
	*p = priceToken(tier)
	return nil
}

type restaurantCreateRequest struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	City     string     `json:"city"`
	Price    priceToken `json:"price"`
	Photo    string     `json:"photo"`
}

type restaurantPhotoRequest struct {
	Photo string `json:"photo"`
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}

// restaurantCreateHandler は管理画面からのレストラン登録を受け付ける。
// 評価集計は常に 0 件から始まり、作成後の URL を Location ヘッダーで返す。
func (h *Handler) restaurantCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restaurantCreateRequest
		if err := decodeBody(r, &req); err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		restaurant, err := h.commands.Create(ctx, domain.NewRestaurant{
			Name:     strings.TrimSpace(req.Name),
			Category: strings.TrimSpace(req.Category),
			City:     strings.TrimSpace(req.City),
			Price:    int(req.Price),
			Photo:    strings.TrimSpace(req.Photo),
		})
		if err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		user, _ := common.UserFromContext(r.Context())
		h.logger.WithField("restaurant_id", restaurant.ID).WithField("user_id", user.ID).Info("restaurant created")
		w.Header().Set("Location", fmt.Sprintf("/restaurants/%s", restaurant.ID))
		common.WriteJSON(h.logger, w, http.StatusCreated, restaurant)
	}
}

// restaurantPhotoHandler はレストランの写真URLを差し替える。
func (h *Handler) restaurantPhotoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restaurantPhotoRequest
		if err := decodeBody(r, &req); err != nil {
			common.WriteError(h.logger, w, err)
			return
		}
		photo := strings.TrimSpace(req.Photo)
		if err := domain.ValidatePhotoURL(photo); err != nil {
			common.WriteError(h.logger, w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		id := chi.URLParam(r, "id")
		if err := h.commands.UpdatePhoto(ctx, id, photo); err != nil {
			common.WriteError(h.logger, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
