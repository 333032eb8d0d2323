// Package restaurant holds the read-only restaurant reference data supplied by
// the remote service and the manage-restaurant edit form used by operators.
//
// Prices on Restaurant and MenuItem are integer minor units as transmitted;
// only Form carries major-unit decimals.
package restaurant

import "time"

// MenuItem is a dish offered by a restaurant. Price is in minor units.
type MenuItem struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Restaurant is the remote restaurant record.
type Restaurant struct {
	ID                    string     `json:"_id"`
	User                  string     `json:"user,omitempty"`
	RestaurantName        string     `json:"restaurantName"`
	City                  string     `json:"city"`
	Country               string     `json:"country"`
	DeliveryPrice         int64      `json:"deliveryPrice"`
	EstimatedDeliveryTime int        `json:"estimatedDeliveryTime"`
	Cuisines              []string   `json:"cuisines"`
	MenuItems             []MenuItem `json:"menuItems"`
	ImageURL              string     `json:"imageUrl"`
	LastUpdated           time.Time  `json:"lastUpdated"`
}

// MenuItem looks up a menu item by id.
func (r *Restaurant) MenuItem(id string) (MenuItem, bool) {
	for _, m := range r.MenuItems {
		if m.ID == id {
			return m, true
		}
	}
	return MenuItem{}, false
}
