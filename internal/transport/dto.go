package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/glowshop/internal/models"
)

type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	ShadeID   string `json:"shadeId"   validate:"max=64"`
	Qty       *int   `json:"qty"       validate:"omitempty,lte=2147483647"`
}

// UpdateCartItemRequest.Qty is a float so that 1.5 reaches the service and is
// rejected there instead of failing JSON decoding.
type UpdateCartItemRequest struct {
	Qty *float64 `json:"qty" validate:"required"`
}

type SubmitRatingRequest struct {
	ItemID     string   `json:"itemId"     validate:"required,max=64"`
	ItemType   string   `json:"itemType"   validate:"required"`
	Rating     *float64 `json:"rating"     validate:"required"`
	ReviewText string   `json:"reviewText" validate:"max=4000"`
}

type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"gte=1"`
}

type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items"          validate:"required,min=1,dive"`
	Shipping       *models.Shipping   `json:"shipping"       validate:"required"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	PaymentMethod  string             `json:"paymentMethod"  validate:"omitempty,oneof=card cod"`
	PaymentDetails models.Opaque      `json:"paymentDetails"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,max=200"`
	Description string          `json:"description" validate:"max=4000"`
	ImageURL    string          `json:"imageUrl"    validate:"max=2048"`
	Category    string          `json:"category"    validate:"max=64"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"       validate:"gte=0"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=4000"`
	ImageURL    *string          `json:"imageUrl"    validate:"omitempty,max=2048"`
	Category    *string          `json:"category"    validate:"omitempty,max=64"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"       validate:"omitempty,gte=0"`
}

type ToggleWishlistRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	ShadeID   string `json:"shadeId"   validate:"max=64"`
}

type WishlistNotifyRequest struct {
	PriceDrop *bool `json:"priceDrop"`
	Restock   *bool `json:"restock"`
}
