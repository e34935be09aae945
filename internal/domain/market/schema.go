package market

// Canonical column names for the cleaned Agmarknet table.
// The raw export carries two title rows and trailing junk columns; preprocessing
// truncates to the first ten columns and renames them to this set.

const (
	ColCommodityGroup = "Commodity_Group"
	ColCommodity      = "Commodity"
	ColVariety        = "Variety"
	ColMSP            = "MSP"
	ColPriceToday     = "Price_Today"
	ColPrice1DayAgo   = "Price_1DayAgo"
	ColPrice2DaysAgo  = "Price_2DaysAgo"
	ColArrivalToday   = "Arrival_Today"
	ColArrival1DayAgo = "Arrival_1DayAgo"
	ColArrival2DayAgo = "Arrival_2DaysAgo"
)

// Engineered feature columns
const (
	ColMSPPremium      = "msp_premium"
	ColPriceMomentum   = "price_momentum"
	ColPriceVolatility = "price_volatility"
)

// EncodedSuffix is appended to a categorical column name for its integer codes
const EncodedSuffix = "_Encoded"

// CanonicalColumns returns the fixed 10-column schema in order
func CanonicalColumns() []string {
	return []string{
		ColCommodityGroup, ColCommodity, ColVariety, ColMSP,
		ColPriceToday, ColPrice1DayAgo, ColPrice2DaysAgo,
		ColArrivalToday, ColArrival1DayAgo, ColArrival2DayAgo,
	}
}

// NumericColumns returns the 7 columns that preprocessing coerces to numbers
func NumericColumns() []string {
	return []string{
		ColMSP, ColPriceToday, ColPrice1DayAgo, ColPrice2DaysAgo,
		ColArrivalToday, ColArrival1DayAgo, ColArrival2DayAgo,
	}
}

// CategoricalColumns returns the columns that feature building label-encodes
func CategoricalColumns() []string {
	return []string{ColCommodityGroup, ColCommodity, ColVariety}
}
