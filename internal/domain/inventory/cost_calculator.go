package inventory

import "github.com/shopspring/decimal"

// costScale decimales con los que se guarda el costo promedio (NUMERIC(14,4)).
const costScale = 4

// WeightedAverageCost recalcula el costo promedio ponderado tras una entrada.
// nuevoCosto = (stock*costo + cantidad*costoEntrada) / (stock + cantidad)
// Con stock previo <= 0 el costo pasa a ser el de la entrada.
func WeightedAverageCost(stock int64, cost decimal.Decimal, quantity int64, unitCost decimal.Decimal) decimal.Decimal {
	if quantity <= 0 {
		return cost
	}
	if stock <= 0 {
		return unitCost.Round(costScale)
	}
	current := decimal.NewFromInt(stock)
	incoming := decimal.NewFromInt(quantity)
	num := current.Mul(cost).Add(incoming.Mul(unitCost))
	return num.Div(current.Add(incoming)).Round(costScale)
}
