package domain

// Deposit and withdrawal channels
const (
	CurrencyBitcoin  = "bitcoin"
	CurrencyEthereum = "ethereum"
	CurrencyUSDT     = "usdt"
	CurrencyBNB      = "bnb"
	CurrencyLitecoin = "litecoin"
)

// Currencies lists every accepted channel
var Currencies = []string{CurrencyBitcoin, CurrencyEthereum, CurrencyUSDT, CurrencyBNB, CurrencyLitecoin}

// ValidCurrency reports whether c is an accepted channel
func ValidCurrency(c string) bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}
