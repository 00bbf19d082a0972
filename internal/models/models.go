package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ItemTypeProduct = "product"
	ItemTypeDiary   = "diary"
)

// MaxLineQty caps the quantity of a single cart line.
const MaxLineQty = math.MaxInt32

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"

	PaymentCard = "card"
	PaymentCOD  = "cod"
)

var OrderStatuses = []string{OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}

// Product.AverageRating and Product.TotalRatings are written by the rating engine only.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"                   json:"id"`
	Name          string          `gorm:"not null"                               json:"name"`
	Description   string          `gorm:"not null;default:''"                    json:"description"`
	ImageURL      string          `gorm:"not null;default:''"                    json:"imageUrl"`
	Category      string          `gorm:"index;not null;default:''"              json:"category,omitempty"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"price"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0"    json:"stock"`
	AverageRating float64         `gorm:"not null;default:0"                     json:"averageRating"`
	TotalRatings  int64           `gorm:"not null;default:0"                     json:"totalRatings"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string {
	return "products"
}

type PriceHistory struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                                   json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_history_product,priority:1" json:"productId"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"                            json:"price"`
	Date      time.Time       `gorm:"not null;index:idx_price_history_product,priority:2"    json:"date"`
}

func (h *PriceHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Date.IsZero() {
		h.Date = tx.NowFunc()
	}
	return nil
}

func (PriceHistory) TableName() string {
	return "price_history"
}

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is unique per (cart, product, shade). An empty ShadeID means no shade.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                  json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line"          json:"cartId"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line"          json:"productId"`
	ShadeID   string    `gorm:"not null;default:'';uniqueIndex:idx_cart_line"         json:"shadeId"`
	Quantity  int       `gorm:"column:qty;not null;check:qty >= 1"                   json:"qty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                                                json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_key,priority:1"            json:"userId"`
	ItemID     string    `gorm:"size:64;not null;uniqueIndex:idx_rating_key,priority:2;index:idx_rating_item,priority:2" json:"itemId"`
	ItemType   string    `gorm:"size:16;not null;uniqueIndex:idx_rating_key,priority:3;index:idx_rating_item,priority:1" json:"itemType"`
	Rating     int       `gorm:"not null;check:rating BETWEEN 1 AND 5"                               json:"rating"`
	ReviewText string    `gorm:"not null;default:''"                                                 json:"reviewText"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Rating) TableName() string {
	return "ratings"
}

type Shipping struct {
	FullName     string `gorm:"not null;default:''" json:"fullName"`
	AddressLine1 string `gorm:"not null;default:''" json:"addressLine1"`
	AddressLine2 string `gorm:"not null;default:''" json:"addressLine2,omitempty"`
	City         string `gorm:"not null;default:''" json:"city"`
	State        string `gorm:"not null;default:''" json:"state,omitempty"`
	ZipCode      string `gorm:"not null;default:''" json:"zipCode"`
	Country      string `gorm:"not null;default:''" json:"country"`
}

type Order struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"               json:"userId"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Shipping       Shipping        `gorm:"embedded;embeddedPrefix:shipping_"      json:"shipping"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"totalAmount"`
	PaymentMethod  string          `gorm:"size:8;not null;default:'card'"         json:"paymentMethod"`
	PaymentDetails Opaque          `json:"paymentDetails,omitempty"`
	Status         string          `gorm:"size:16;not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time       `gorm:"index"                                  json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem rows are written once with their order and never updated.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"              json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"          json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"                json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity >= 1"      json:"quantity"`
	Product   *Product  `gorm:"-"                                 json:"product,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}

type Wishlist struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	NotifyPriceDrop bool           `gorm:"not null;default:true"          json:"-"`
	NotifyRestock   bool           `gorm:"not null;default:true"          json:"-"`
	Items           []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (w *Wishlist) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (Wishlist) TableName() string {
	return "wishlists"
}

type WishlistItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"id"`
	WishlistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_line"    json:"-"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_line"    json:"productId"`
	ShadeID    string    `gorm:"not null;default:'';uniqueIndex:idx_wishlist_line"   json:"shadeId,omitempty"`
	AddedAt    time.Time `gorm:"not null"                                            json:"addedAt"`
}

func (i *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.AddedAt.IsZero() {
		i.AddedAt = tx.NowFunc()
	}
	return nil
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func All() []any {
	return []any{
		&Product{},
		&PriceHistory{},
		&Cart{},
		&CartItem{},
		&Rating{},
		&Order{},
		&OrderItem{},
		&Wishlist{},
		&WishlistItem{},
	}
}
