package models

// Column is a labelled record field.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Attribute is a labelled field value of a single record.
type Attribute struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// AllColumns lists every record field in display order.
var AllColumns = []Column{
	{Key: "id", Label: "Connection ID"},
	{Key: "applicantName", Label: "Applicant Name"},
	{Key: "gender", Label: "Gender"},
	{Key: "district", Label: "District"},
	{Key: "state", Label: "State"},
	{Key: "pincode", Label: "Pincode"},
	{Key: "ownership", Label: "Ownership"},
	{Key: "govtIdType", Label: "Government ID Type"},
	{Key: "idNumber", Label: "ID Number"},
	{Key: "category", Label: "Category"},
	{Key: "loadApplied", Label: "Load Applied (in KV)"},
	{Key: "dateOfApplication", Label: "Date of Application"},
	{Key: "dateOfApproval", Label: "Date of Approval"},
	{Key: "modifiedDate", Label: "Modified Date"},
	{Key: "status", Label: "Status"},
	{Key: "reviewerId", Label: "Reviewer ID"},
	{Key: "reviewerName", Label: "Reviewer Name"},
	{Key: "reviewerComments", Label: "Reviewer Comments"},
}

// ListingColumns are the fields shown in the record table.
var ListingColumns = []Column{
	{Key: "applicantName", Label: "Applicant Name"},
	{Key: "idNumber", Label: "ID Number"},
	{Key: "dateOfApplication", Label: "Date of Application"},
	{Key: "loadApplied", Label: "Load Applied (in KV)"},
}

// Attributes returns every field of r with its label, in display order.
func (r ConnectionRecord) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(AllColumns))
	for _, col := range AllColumns {
		attrs = append(attrs, Attribute{
			Key:   col.Key,
			Label: col.Label,
			Value: r.Value(col.Key),
		})
	}
	return attrs
}
