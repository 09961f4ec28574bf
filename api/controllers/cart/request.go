package cart

import "github.com/angelmondragon/quotecart/internal/submission"

type addItemRequest struct {
	Slug     string `json:"slug" validate:"required,max=200"`
	Option   string `json:"option,omitempty" validate:"omitempty,max=200"`
	Quantity *int   `json:"quantity,omitempty" validate:"omitempty,min=1,max=100000"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=100000"`
}

type submitRequest struct {
	Kind    string             `json:"kind" validate:"required,oneof=order quote"`
	Contact submission.Contact `json:"contact" validate:"-"`
}
