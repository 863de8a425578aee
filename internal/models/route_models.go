package models

// GeoPoint is a stop candidate. A nil coordinate marks the point as unroutable.
type GeoPoint struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Routable reports whether both coordinates are present.
func (p GeoPoint) Routable() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Farm is the subset of a farm record the route planner needs.
type Farm struct {
	ID        string   `json:"id"`
	FarmerID  string   `json:"farmer_id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Point converts the farm into a route stop.
func (f Farm) Point() GeoPoint {
	return GeoPoint{ID: f.ID, Name: f.Name, Latitude: f.Latitude, Longitude: f.Longitude}
}

// RoutePlanRequest is the body of POST /routes/plan.
type RoutePlanRequest struct {
	FarmNames      []string `json:"farmNames" validate:"required,min=1,dive,required"`
	StartingFarmID *string  `json:"startingFarmId,omitempty"`
}

// UserFarmsRouteRequest is the body of POST /admin/routes/user-farms.
type UserFarmsRouteRequest struct {
	UserIDs        []string `json:"userIds" validate:"required,min=1,dive,required"`
	StartingFarmID *string  `json:"startingFarmId,omitempty"`
}

// RouteStop is one visit in a planned route.
type RouteStop struct {
	Sequence             int      `json:"sequence"`
	FarmID               string   `json:"farm_id"`
	FarmName             string   `json:"farm_name"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	LegDistanceKm        float64  `json:"leg_distance_km"`
	CumulativeDistanceKm float64  `json:"cumulative_distance_km"`
}

// RouteSummary aggregates a planned route.
type RouteSummary struct {
	TotalDistanceKm float64    `json:"total_distance_km"`
	StopCount       int        `json:"stop_count"`
	StartFarmID     string     `json:"start_farm_id"`
	Unroutable      []GeoPoint `json:"unroutable"`
	NotFound        []string   `json:"not_found,omitempty"`
}

// RoutePlanResponse is returned by every route planning endpoint.
type RoutePlanResponse struct {
	Route          []RouteStop  `json:"route"`
	Summary        RouteSummary `json:"summary"`
	DistanceMatrix [][]float64  `json:"distance_matrix"`
}
