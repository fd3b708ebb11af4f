package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/jobqueue/internal/api/dto"
	"github.com/cuongbtq/jobqueue/internal/api/model"
	"github.com/cuongbtq/jobqueue/internal/api/storage"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateItem handles POST /api/items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid item payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid Item data payload",
		})
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), req.Data.Name, *req.Data.Price)
	if errors.Is(err, storage.ErrItemAlreadyExists) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Item already exists with name '" + req.Data.Name + "'",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to create item", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create Item",
		})
		return
	}

	h.logger.Info("Item created",
		slog.Int64("item_id", item.ID),
		slog.String("name", item.Name),
	)

	c.JSON(http.StatusOK, dto.CreateItemResponse{
		Data: toItemDTO(item),
		Meta: dto.CreateItemResponseMeta{Created: true},
	})
}

// GetItem handles GET /api/items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid Item ID",
		})
		return
	}

	item, err := h.items.GetItemByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Item not found",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get item", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query Item",
		})
		return
	}

	c.JSON(http.StatusOK, dto.GetItemResponse{Data: toItemDTO(item)})
}

// ListItems handles GET /api/items
// With item_ids it returns the subset of those items that exist, otherwise
// a cursor-paginated page, newest first
func (h *ItemHandler) ListItems(c *gin.Context) {
	if raw, ok := c.GetQueryArray("item_ids"); ok {
		h.getItemsByIDs(c, raw)
		return
	}

	var req dto.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeItemCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	items, err := h.items.ListItems(c.Request.Context(), storage.ItemFilter{
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list items", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query Items",
		})
		return
	}

	hasMore := len(items) > req.PageSize
	if hasMore {
		items = items[:req.PageSize]
	}

	var meta dto.ListItemsMeta
	if hasMore {
		last := items[len(items)-1]
		meta.NextCursor = EncodeItemCursor(&storage.ItemCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.GetItemsResponse{
		Data: toItemDTOs(items),
		Meta: meta,
	})
}

func (h *ItemHandler) getItemsByIDs(c *gin.Context, raw []string) {
	var ids []int64
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid Item ID",
				})
				return
			}
			ids = append(ids, id)
		}
	}

	items, err := h.items.GetItemsByIDs(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("Failed to get items", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to query Items",
		})
		return
	}

	c.JSON(http.StatusOK, dto.GetItemsResponse{Data: toItemDTOs(items)})
}

func toItemDTO(item *model.Item) dto.ItemDTO {
	return dto.ItemDTO{
		ID:        item.ID,
		UUID:      item.UUID,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		Name:      item.Name,
		Price:     item.Price,
	}
}

func toItemDTOs(items []model.Item) []dto.ItemDTO {
	out := make([]dto.ItemDTO, len(items))
	for i := range items {
		out[i] = toItemDTO(&items[i])
	}
	return out
}
