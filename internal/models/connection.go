package models

import (
	"strconv"
)

// Status is the review state of a connection application.
type Status string

// Application statuses.
const (
	StatusPending            Status = "Pending"
	StatusApproved           Status = "Approved"
	StatusRejected           Status = "Rejected"
	StatusConnectionReleased Status = "Connection Released"
)

// Statuses lists every valid status in selector order.
func Statuses() []Status {
	return []Status{StatusApproved, StatusRejected, StatusPending, StatusConnectionReleased}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusConnectionReleased:
		return true
	}
	return false
}

// Category is the kind of connection applied for.
type Category string

// Connection categories.
const (
	CategoryCommercial  Category = "Commercial"
	CategoryResidential Category = "Residential"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{CategoryCommercial, CategoryResidential}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryCommercial || c == CategoryResidential
}

// Load bounds, in kV, accepted for an application before it is persisted.
const (
	MinLoadApplied = 0
	MaxLoadApplied = 2000
)

// ConnectionRecord is one electricity connection application as served by
// the backend. ID is the identity and never changes.
// The validate tags guard the fields an edit may change; "status" and
// "category" are registered by the session validator.
type ConnectionRecord struct {
	ID                int64      `json:"id"`
	ApplicantName     string     `json:"applicantName"`
	Gender            string     `json:"gender"`
	District          string     `json:"district"`
	State             string     `json:"state"`
	Pincode           FlexString `json:"pincode"`
	Ownership         string     `json:"ownership"`
	GovtIDType        string     `json:"govtIdType"`
	IDNumber          FlexString `json:"idNumber"`
	Category          Category   `json:"category" validate:"category"`
	LoadApplied       int        `json:"loadApplied" validate:"gte=0,lte=2000"`
	DateOfApplication Date       `json:"dateOfApplication"`
	DateOfApproval    *Date      `json:"dateOfApproval"`
	ModifiedDate      *Date      `json:"modifiedDate"`
	Status            Status     `json:"status" validate:"status"`
	ReviewerID        FlexString `json:"reviewerId"`
	ReviewerName      string     `json:"reviewerName"`
	ReviewerComments  string     `json:"reviewerComments"`
}

// Clone returns a copy of r that shares no memory with it.
func (r ConnectionRecord) Clone() ConnectionRecord {
	c := r
	if r.DateOfApproval != nil {
		d := *r.DateOfApproval
		c.DateOfApproval = &d
	}
	if r.ModifiedDate != nil {
		d := *r.ModifiedDate
		c.ModifiedDate = &d
	}
	return c
}

// Value returns the display text of the field with the given JSON key.
// Unknown keys and absent values render as the empty string.
func (r ConnectionRecord) Value(key string) string {
	switch key {
	case "id":
		return strconv.FormatInt(r.ID, 10)
	case "applicantName":
		return r.ApplicantName
	case "gender":
		return r.Gender
	case "district":
		return r.District
	case "state":
		return r.State
	case "pincode":
		return r.Pincode.String()
	case "ownership":
		return r.Ownership
	case "govtIdType":
		return r.GovtIDType
	case "idNumber":
		return r.IDNumber.String()
	case "category":
		return string(r.Category)
	case "loadApplied":
		return strconv.Itoa(r.LoadApplied)
	case "dateOfApplication":
		return r.DateOfApplication.String()
	case "dateOfApproval":
		return optionalDate(r.DateOfApproval)
	case "modifiedDate":
		return optionalDate(r.ModifiedDate)
	case "status":
		return string(r.Status)
	case "reviewerId":
		return r.ReviewerID.String()
	case "reviewerName":
		return r.ReviewerName
	case "reviewerComments":
		return r.ReviewerComments
	}
	return ""
}

func optionalDate(d *Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
