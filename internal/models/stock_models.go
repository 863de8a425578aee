package models

import "time"

// StockLot is one farmer's sellable quantity of one crop, in kilograms.
type StockLot struct {
	ID          string     `json:"id"`
	FarmerID    string     `json:"farmer_id"`
	FarmerName  string     `json:"farmer_name"`
	FarmerEmail string     `json:"-"`
	FarmID      string     `json:"farm_id"`
	CropID      string     `json:"crop_id"`
	CropName    string     `json:"crop_name"`
	AvailableKg float64    `json:"available_kg"`
	LastVisited *time.Time `json:"last_visited,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// OrderRequestItem is one (crop, quantity) line of an auto-order batch.
type OrderRequestItem struct {
	Crop     string  `json:"crop" validate:"required"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit,omitempty"`
}

// AutoOrderRequest is the body of POST /auto-orders/create.
type AutoOrderRequest struct {
	Crops []OrderRequestItem `json:"crops" validate:"required,min=1,dive"`
}

// AllocatedOrder is one order row created by an allocation batch.
type AllocatedOrder struct {
	OrderID          string  `json:"order_id"`
	LotID            string  `json:"lot_id"`
	FarmerID         string  `json:"farmer_id"`
	FarmerName       string  `json:"farmer_name"`
	FarmerEmail      string  `json:"-"`
	FarmID           string  `json:"farm_id"`
	CropID           string  `json:"crop_id"`
	CropName         string  `json:"crop_name"`
	AdminID          string  `json:"admin_id"`
	AssignedKg       float64 `json:"assigned_kg"`
	OriginalQuantity float64 `json:"original_quantity"`
	OriginalUnit     string  `json:"original_unit"`
}

// Reasons reported for unfulfilled batch lines.
const (
	ReasonNoFarmers = "No farmers found"
	ReasonPartial   = "Partial fulfillment"
)

// UnfulfilledRequest describes the part of a batch line nobody could supply.
// ShortfallQuantity is expressed in Unit, the unit the line was requested in.
type UnfulfilledRequest struct {
	Crop              string  `json:"crop"`
	ShortfallQuantity float64 `json:"shortfall_quantity"`
	ShortfallKg       float64 `json:"shortfall_kg"`
	Unit              string  `json:"unit"`
	Reason            string  `json:"reason"`
}

// AllocationResult is produced once per batch and never mutated afterwards.
type AllocationResult struct {
	OrdersCreated []AllocatedOrder
	Unfulfilled   []UnfulfilledRequest
}

// AutoOrderResponse is the body returned by POST /auto-orders/create.
type AutoOrderResponse struct {
	OrdersCreated int                  `json:"orders_created"`
	Orders        []AllocatedOrder     `json:"orders"`
	Unfulfilled   []UnfulfilledRequest `json:"unfulfilled_requests"`
}

// CropAvailability is one row of the availability report.
type CropAvailability struct {
	CropID           string  `json:"crop_id"`
	CropName         string  `json:"crop_name"`
	TotalAvailableKg float64 `json:"total_available_kg"`
	FarmerCount      int     `json:"farmer_count"`
}

// FarmerAvailability is one farmer's stock of a crop in the availability details.
type FarmerAvailability struct {
	FarmerID    string     `json:"farmer_id"`
	FarmerName  string     `json:"farmer_name"`
	FarmID      string     `json:"farm_id"`
	FarmName    string     `json:"farm_name"`
	AvailableKg float64    `json:"available_kg"`
	LastVisited *time.Time `json:"last_visited,omitempty"`
}
