package dto

type ItemIn struct {
	Name  string   `json:"name" binding:"required"`
	Price *float64 `json:"price" binding:"required,min=0"`
}

type CreateItemRequest struct {
	Data ItemIn `json:"data" binding:"required"`
}

type ListItemsRequest struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ItemDTO struct {
	ID        int64   `json:"id"`
	UUID      string  `json:"uuid"`
	CreatedAt string  `json:"created_at"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

type GetItemResponse struct {
	Data ItemDTO  `json:"data"`
	Meta struct{} `json:"meta"`
}

type ListItemsMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
}

type GetItemsResponse struct {
	Data []ItemDTO     `json:"data"`
	Meta ListItemsMeta `json:"meta"`
}

type CreateItemResponseMeta struct {
	Created bool `json:"created"`
}

type CreateItemResponse struct {
	Data ItemDTO                `json:"data"`
	Meta CreateItemResponseMeta `json:"meta"`
}
