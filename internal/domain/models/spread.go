package models

// LegSpec is one futures leg of a spread definition.
// Weight and ConversionFactor are optional so that a definition missing
// either can still be built and reported.
type LegSpec struct {
	Ticker           string    `json:"ticker" validate:"required"`
	ContractMonth    MonthCode `json:"contract_month" validate:"required,oneof=F G H J K M N Q U V X Z"`
	YearOffset       int       `json:"year_offset" validate:"gte=0"`
	Weight           *float64  `json:"weight,omitempty"`
	ConversionFactor *float64  `json:"conversion_factor,omitempty"`
	// YearsBack overrides the definition's history depth for this leg when > 0.
	YearsBack int `json:"years_back,omitempty" validate:"gte=0,lte=99"`
}

// NewLeg builds a fully specified leg.
func NewLeg(ticker string, month MonthCode, yearOffset int, weight, conversion float64) LegSpec {
	return LegSpec{
		Ticker:           ticker,
		ContractMonth:    month,
		YearOffset:       yearOffset,
		Weight:           &weight,
		ConversionFactor: &conversion,
	}
}

// SpreadDefinition is one row of the batch input: a named basket of legs plus
// the labels copied onto every output row.
type SpreadDefinition struct {
	Name      string    `json:"name" validate:"required"`
	Legs      []LegSpec `json:"legs" validate:"required,min=1,dive"`
	YearsBack int       `json:"years_back" default:"10" validate:"gte=1,lte=99"`
	// RollFlag is the expiry table ticker; empty means the first leg's ticker.
	RollFlag string `json:"roll_flag"`
	Group    string `json:"group"`
	Region   string `json:"region"`
	Month    string `json:"month"`
	Desc     string `json:"desc"`
}

// ExpiryTicker resolves the ticker used against the expiry table.
func (d SpreadDefinition) ExpiryTicker() string {
	if d.RollFlag != "" {
		return d.RollFlag
	}
	if len(d.Legs) > 0 {
		return d.Legs[0].Ticker
	}
	return ""
}

// LegYearsBack is the history depth for leg i.
func (d SpreadDefinition) LegYearsBack(i int) int {
	if i >= 0 && i < len(d.Legs) && d.Legs[i].YearsBack > 0 {
		return d.Legs[i].YearsBack
	}
	return d.YearsBack
}
