package cart

import (
	"github.com/angelmondragon/quotecart/internal/quotecart"
	"github.com/angelmondragon/quotecart/internal/submission"
)

type cartResponse struct {
	Items         []quotecart.Line `json:"items"`
	Count         int              `json:"count"`
	TotalQuantity int              `json:"total_quantity"`
}

type itemResponse struct {
	Item quotecart.Line `json:"item"`
	Cart cartResponse   `json:"cart"`
}

type submitResponse struct {
	Submission submission.Result `json:"submission"`
	Cart       cartResponse      `json:"cart"`
}

func newCartResponse(view quotecart.View) cartResponse {
	items := view.Items()
	if items == nil {
		items = []quotecart.Line{}
	}
	return cartResponse{
		Items:         items,
		Count:         view.Count(),
		TotalQuantity: view.TotalQuantity(),
	}
}
