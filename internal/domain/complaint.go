package domain

import "time"

// StatusSubmitted is the initial status of every persisted complaint.
const StatusSubmitted = "Submitted"

// Complaint is a citizen complaint as persisted in the complaints table.
// PK: reference_id.
type Complaint struct {
	ReferenceID     string   `json:"reference_id" dynamodbav:"reference_id"`
	ComplaintID     string   `json:"complaint_id" dynamodbav:"complaint_id"`
	Title           string   `json:"title" dynamodbav:"title"`
	UserID          *string  `json:"user_id" dynamodbav:"user_id"`
	UserName        *string  `json:"user_name" dynamodbav:"user_name"`
	UserEmail       *string  `json:"user_email" dynamodbav:"user_email"`
	UserMobile      *string  `json:"user_mobile" dynamodbav:"user_mobile"`
	Category        string   `json:"category" dynamodbav:"category"`
	PhotoURL        *string  `json:"photo_url" dynamodbav:"photo_url"`
	Location        *string  `json:"location" dynamodbav:"location"`
	LocationLat     *float64 `json:"location_lat" dynamodbav:"location_lat"`
	LocationLng     *float64 `json:"location_lng" dynamodbav:"location_lng"`
	GoogleMapsLink  *string  `json:"google_maps_link" dynamodbav:"google_maps_link"`
	DepartmentEmail string   `json:"department_email" dynamodbav:"department_email"`
	Description     *string  `json:"description" dynamodbav:"description"`
	Status          string   `json:"status" dynamodbav:"status"`
	CreatedDate     time.Time `json:"created_date" dynamodbav:"created_date"`
	CreatedBy       string   `json:"created_by" dynamodbav:"created_by"`
}

// DefaultDepartmentEmail receives complaints that match no department.
const DefaultDepartmentEmail = "comm-mcc-chd@nic.in"

// departmentByCategory routes each complaint category to the responsible
// department mailbox.
var departmentByCategory = map[string]string{
	"Roads":       "xenr1mccchd@nic.in",
	"Electricity": "elop1-chd@nic.in",
	"Water":       "smartcity.chd@nic.in",
	"Health":      "dhs_ut@yahoo.co.in",
	"Environment": "cf-chd@chd.nic.in",
	"Emergency":   "erss112chd-police@chd.nic.in",
}

// DepartmentEmail returns the mailbox for a category and whether the category
// has a dedicated department. "Other" is a valid category without one.
func DepartmentEmail(category string) (string, bool) {
	addr, ok := departmentByCategory[category]
	return addr, ok
}

// ValidCategory reports whether category is accepted for submission.
func ValidCategory(category string) bool {
	if category == "Other" {
		return true
	}
	_, ok := departmentByCategory[category]
	return ok
}

// Categories returns the fixed category allow-list (excluding "Other").
func Categories() []string {
	out := make([]string, 0, len(departmentByCategory))
	for c := range departmentByCategory {
		out = append(out, c)
	}
	return out
}
