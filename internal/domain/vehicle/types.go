package vehicle

// Category drives the base-rate multiplier looked up in the pricing catalog.
type Category string

const (
	CategoryEconomy Category = "economy"
	CategoryCompact Category = "compact"
	CategorySUV     Category = "suv"
	CategoryVan     Category = "van"
	CategoryLuxury  Category = "luxury"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryEconomy, CategoryCompact, CategorySUV, CategoryVan, CategoryLuxury:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusAvailable   Status = "available"
	StatusMaintenance Status = "maintenance"
	StatusRetired     Status = "retired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusMaintenance, StatusRetired:
		return true
	default:
		return false
	}
}
