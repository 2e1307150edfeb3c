// Package inventory provides a client for the remote inventory REST API.
package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultUnit is used when a product is created without a unit of measure.
const DefaultUnit = "unidades"

// Role is the permission level of an authenticated user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Product represents an inventory item as returned by the API.
type Product struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
	LastUpdated Timestamp `json:"lastUpdated"`
}

// productJSON mirrors Product with the legacy "created" field some
// servers send instead of lastUpdated.
type productJSON struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
	LastUpdated Timestamp `json:"lastUpdated"`
	Created     Timestamp `json:"created"`
}

// UnmarshalJSON falls back to "created" when "lastUpdated" is missing.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product{
		ID:          raw.ID,
		Code:        raw.Code,
		Name:        raw.Name,
		Description: raw.Description,
		Category:    raw.Category,
		Quantity:    raw.Quantity,
		Unit:        raw.Unit,
		LastUpdated: raw.LastUpdated,
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = raw.Created
	}
	return nil
}

// DisplayQuantity returns the quantity with its unit, e.g. "150 unidades".
func (p *Product) DisplayQuantity() string {
	if p.Unit == "" {
		return fmt.Sprintf("%d", p.Quantity)
	}
	return fmt.Sprintf("%d %s", p.Quantity, p.Unit)
}

// NewProduct is the request body for creating a product.
type NewProduct struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
	Unit        string `json:"unit"`
}

// User is the profile returned on login.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// DeleteRequest is the body sent when deleting a product.
type DeleteRequest struct {
	Reason string `json:"reason"`
}

// ErrUnauthorized matches any API error with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError represents a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Is reports whether the error is ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Timestamp is a time that tolerates the date layouts seen from the API.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02",
}

// ParseTimestamp parses s using the known layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON leaves the zero time for null, empty or unparsable values.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		*t = Timestamp{}
		return nil
	}
	*t = parsed
	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
