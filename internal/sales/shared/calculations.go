package shared

// CalculateLineTotals computes the discount, tax and total for one offer
// line. Discount applies to the gross amount, tax to the discounted net.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	grossAmount := quantity * unitPrice
	discountAmount = grossAmount * (discountPercent / 100)
	netAmount := grossAmount - discountAmount
	taxAmount = netAmount * (taxPercent / 100)
	lineTotal = netAmount + taxAmount
	return
}
