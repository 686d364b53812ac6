package dto

type PaymentFilters struct {
	OrderID *int64
	Status  []string
	Method  []string
	Sort    []string
	Limit   int
	Offset  int
}
