// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique "person" or "account".
// It contains only the most fundamental identity information shared across all roles.
type User struct {
	ID              uuid.UUID        // The Global Unique Identifier (GUID) for the user.
	Email           string           // The user's primary contact email, often used as a login identifier.
	Name            string           // The user's display name or real name.
	CustomerProfile *CustomerProfile // A pointer to the customer-specific profile. Nil if this person does not have a 'customer' role.
	CookProfile     *CookProfile     // A pointer to the cook-specific profile. Nil if this person does not have a 'cook' role.
	CreatedAt       time.Time        // Timestamp of when this user account was created.
	UpdatedAt       time.Time        // Timestamp of the last modification to this user's data.
}

// Roles derives the roles of a user from the profiles attached to the account.
func (u *User) Roles() Roles {
	roles := make(Roles, 0, 2)
	if u.CustomerProfile != nil {
		roles = append(roles, RoleCustomer)
	}
	if u.CookProfile != nil {
		roles = append(roles, RoleCook)
	}

	return roles
}

// CustomerProfile holds data specific to the "customer" role.
type CustomerProfile struct {
	UserID            uuid.UUID // Foreign Key that links this profile to a core User entity.
	DefaultAddress    string    // The customer's default delivery/pickup address.
	DietaryNotes      string    // Free-text dietary preferences shown to cooks.
	FavouriteCuisines []string  // Cuisine tags the customer marked as favourites.
	UpdatedAt         time.Time // Timestamp of the last modification to this profile.
}

// CookProfile holds data specific to the "cook" role.
type CookProfile struct {
	UserID      uuid.UUID // Foreign Key that links this profile to a core User entity.
	KitchenName string    // The cook's public kitchen name shown on dishes.
	Bio         string    // A description of the cook and their food.
	Latitude    float64   // Kitchen latitude, used for nearby-cook discovery.
	Longitude   float64   // Kitchen longitude, used for nearby-cook discovery.
	Rating      float64   // Average customer rating, 0 when unrated.
	UpdatedAt   time.Time // Timestamp of the last modification to this profile.
}
