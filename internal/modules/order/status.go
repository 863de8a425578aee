package order

import "agri-supply/internal/models"

// transitions is the single order state machine. Terminal statuses have no entry.
var transitions = map[string][]string{
	models.OrderStatusPending:      {models.OrderStatusAcknowledged, models.OrderStatusCancelled},
	models.OrderStatusAcknowledged: {models.OrderStatusDispatched, models.OrderStatusCancelled},
	models.OrderStatusDispatched:   {models.OrderStatusDelivered},
	models.OrderStatusDelivered:    {models.OrderStatusReceived},
}

// farmerTargets are the statuses a farmer may move their own order into.
// Confirming receipt is left to the buyer side.
var farmerTargets = map[string]bool{
	models.OrderStatusAcknowledged: true,
	models.OrderStatusDispatched:   true,
	models.OrderStatusDelivered:    true,
	models.OrderStatusCancelled:    true,
}

// CanTransition reports whether role may move an order from one status to another.
func CanTransition(role, from, to string) bool {
	allowed := false
	for _, s := range transitions[from] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleFarmer:
		return farmerTargets[to]
	}
	return false
}

// IsOpen reports whether an order still awaits pickup.
func IsOpen(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusAcknowledged
}
