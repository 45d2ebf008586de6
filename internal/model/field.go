package model

import "fmt"

// Field identifies one sweepable member of Params.
type Field string

const (
	FieldMaxEmissions     Field = "max_emissions"
	FieldMaintenanceHours Field = "maintenance_hours"
	FieldMinDemand        Field = "min_demand"
	FieldSolarCapacity    Field = "solar_capacity"
	FieldWindCapacity     Field = "wind_capacity"
)

// FieldInfo holds display name, unit and chart title for a field.
type FieldInfo struct {
	Name  string
	Unit  string
	Title string
}

// FieldCatalog maps every Field to its display information.
var FieldCatalog = map[Field]FieldInfo{
	FieldMaxEmissions:     {Name: "Emissions cap", Unit: "kg CO₂/day", Title: "Optimal profit vs emissions cap"},
	FieldMaintenanceHours: {Name: "Maintenance time", Unit: "h", Title: "Optimal profit vs guaranteed maintenance time"},
	FieldMinDemand:        {Name: "Minimum demand", Unit: "MW", Title: "Optimal profit vs minimum demand"},
	FieldSolarCapacity:    {Name: "Solar capacity", Unit: "MW", Title: "Optimal profit vs solar capacity"},
	FieldWindCapacity:     {Name: "Wind capacity", Unit: "MW", Title: "Optimal profit vs wind capacity"},
}

// Fields returns all fields in canonical sweep order.
func Fields() []Field {
	return []Field{
		FieldMaxEmissions,
		FieldMaintenanceHours,
		FieldMinDemand,
		FieldSolarCapacity,
		FieldWindCapacity,
	}
}

// ParseField accepts a field slug such as "solar_capacity".
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := FieldCatalog[f]; !ok {
		return "", fmt.Errorf("unknown field %q", s)
	}
	return f, nil
}

// Label returns "Name (unit)" for axis labels.
func (f Field) Label() string {
	info, ok := FieldCatalog[f]
	if !ok {
		return string(f)
	}
	return fmt.Sprintf("%s (%s)", info.Name, info.Unit)
}
