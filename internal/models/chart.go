package models

// MonthCount is the number of applications filed in one calendar month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ChartBucket holds one count per calendar month, January first.
type ChartBucket [12]MonthCount

// Total returns the sum of all monthly counts.
func (b ChartBucket) Total() int {
	total := 0
	for _, m := range b {
		total += m.Count
	}
	return total
}
