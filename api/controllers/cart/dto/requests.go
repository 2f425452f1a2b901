package cartdto

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Color     string `json:"color" validate:"required,max=64"`
	Size      string `json:"size" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=9999"`
}

// UpdateItemRequest carries the absolute quantity; zero or less removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}

type SetShippingRequest struct {
	ShippingMethod string `json:"shipping_method" validate:"required"`
}

type TransferRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
}
