package models

// Account roles carried in the JWT "role" claim.
const (
	RoleAdmin  = "admin"
	RoleFarmer = "farmer"
)
